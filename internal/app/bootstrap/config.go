// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATADAILY"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_access_secret, etc.
//   - Environment variables: STRATADAILY_MONGO_URI, STRATADAILY_JWT_ACCESS_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_access_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratadaily", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Tokens
	{Name: "jwt_access_secret", Default: "dev-only-access-secret-change-me-0123456789", Desc: "Access token signing secret (32+ chars in production)"},
	{Name: "jwt_refresh_secret", Default: "dev-only-refresh-secret-change-me-0123456789", Desc: "Refresh token signing secret (32+ chars in production)"},
	{Name: "jwt_access_ttl", Default: "15m", Desc: "Access token lifetime"},
	{Name: "jwt_refresh_ttl", Default: "120h", Desc: "Refresh token lifetime"},

	// Cookies and CORS
	{Name: "cookie_domain", Default: "", Desc: "Auth cookie domain (blank means current host)"},
	{Name: "cookie_secure", Default: false, Desc: "Mark auth cookies Secure and SameSite=None (always on in prod)"},
	{Name: "cors_origins", Default: "http://localhost:3000,http://localhost:5173", Desc: "Comma-separated frontend origins allowed by CORS"},

	// Global request throttle
	{Name: "throttle_requests", Default: 300, Desc: "Requests allowed per client IP per window (0 disables)"},
	{Name: "throttle_window", Default: "10m", Desc: "Request throttle window"},

	// Login lockout
	{Name: "rate_limit_enabled", Default: true, Desc: "Enable lockout after repeated failed logins"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Max failed login attempts before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Time window for counting failed attempts"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded songs"},
	{Name: "storage_local_url", Default: "/uploads", Desc: "URL prefix for serving local files"},

	// S3/CloudFront configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "uploads/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "StrataDaily", Desc: "From display name"},

	// URLs
	{Name: "frontend_url", Default: "http://localhost:3000", Desc: "Frontend base URL for reset links and OAuth redirects"},
	{Name: "api_base_url", Default: "http://localhost:8080", Desc: "Public base URL of this API"},

	{Name: "password_reset_expiry", Default: "1h", Desc: "Password reset link expiry"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "reconcile_interval", Default: "15m", Desc: "How often explorer containment drift is repaired"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// WAFFLE_* and STRATADAILY_* environment variables and flags, merged with
// precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTAccessSecret:  appValues.String("jwt_access_secret"),
		JWTRefreshSecret: appValues.String("jwt_refresh_secret"),
		JWTAccessTTL:     appValues.Duration("jwt_access_ttl", 15*time.Minute),
		JWTRefreshTTL:    appValues.Duration("jwt_refresh_ttl", 120*time.Hour),

		CookieDomain: appValues.String("cookie_domain"),
		CookieSecure: appValues.Bool("cookie_secure") || coreCfg.Env == "prod",
		CORSOrigins:  splitList(appValues.String("cors_origins")),

		ThrottleRequests: appValues.Int("throttle_requests"),
		ThrottleWindow:   appValues.Duration("throttle_window", 10*time.Minute),

		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),

		// File storage
		StorageType:      appValues.String("storage_type"),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		// S3/CloudFront
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		FrontendURL: strings.TrimRight(appValues.String("frontend_url"), "/"),
		APIBaseURL:  strings.TrimRight(appValues.String("api_base_url"), "/"),

		PasswordResetExpiry: appValues.Duration("password_reset_expiry", time.Hour),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		ReconcileInterval: appValues.Duration("reconcile_interval", 15*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Token secret strength is checked when the token manager is built, where
// the prod/dev distinction is known.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	err := validation.ValidateStruct(&appCfg,
		validation.Field(&appCfg.MongoDatabase, validation.Required),
		validation.Field(&appCfg.JWTAccessSecret, validation.Required),
		validation.Field(&appCfg.JWTRefreshSecret, validation.Required,
			validation.NotIn(appCfg.JWTAccessSecret).Error("must differ from jwt_access_secret")),
		validation.Field(&appCfg.JWTAccessTTL, validation.Min(time.Minute)),
		validation.Field(&appCfg.JWTRefreshTTL, validation.Min(appCfg.JWTAccessTTL)),
		validation.Field(&appCfg.ThrottleRequests, validation.Min(0)),
		validation.Field(&appCfg.StorageType, validation.In("local", "s3")),
		validation.Field(&appCfg.StorageS3Bucket, validation.When(appCfg.StorageType == "s3", validation.Required)),
		validation.Field(&appCfg.StorageS3Region, validation.When(appCfg.StorageType == "s3", validation.Required)),
		validation.Field(&appCfg.FrontendURL, validation.Required, is.URL),
		validation.Field(&appCfg.APIBaseURL, validation.Required, is.URL),
		validation.Field(&appCfg.CORSOrigins, validation.Each(is.URL)),
		validation.Field(&appCfg.PasswordResetExpiry, validation.Min(time.Minute)),
	)
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		logger.Warn("Google sign-in disabled: set both google_client_id and google_client_secret")
	}
	return nil
}
