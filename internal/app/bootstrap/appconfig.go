// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework settings (ports, TLS, log level, body limits); everything here is
// specific to the productivity API.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Access/refresh token configuration
	JWTAccessSecret  string        // HS256 secret for access tokens (32+ chars in production)
	JWTRefreshSecret string        // HS256 secret for refresh tokens; must differ from the access secret
	JWTAccessTTL     time.Duration // Access token lifetime (default: 15m)
	JWTRefreshTTL    time.Duration // Refresh token lifetime (default: 120h)

	// Auth cookie configuration
	CookieDomain string // Cookie domain (blank means current host)
	CookieSecure bool   // Secure + SameSite=None; forced on in prod

	// API CORS configuration
	CORSOrigins []string // Allowed frontend origins; credentials are allowed

	// Global request throttle
	ThrottleRequests int           // Requests per client IP per window (default: 300, 0 disables)
	ThrottleWindow   time.Duration // Throttle window (default: 10m)

	// Login lockout configuration
	RateLimitEnabled       bool          // Enable lockout after failed logins (default: true)
	RateLimitLoginAttempts int           // Max failed login attempts before lockout (default: 5)
	RateLimitLoginWindow   time.Duration // Time window for counting failed attempts (default: 15m)
	RateLimitLoginLockout  time.Duration // Lockout duration after exceeding limit (default: 15m)

	// File storage configuration (songs)
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/uploads")

	// S3/CloudFront configuration (only used if StorageType is "s3")
	StorageS3Region    string // AWS region
	StorageS3Bucket    string // S3 bucket name
	StorageS3Prefix    string // Key prefix (e.g., "uploads/")
	StorageCFURL       string // CloudFront distribution URL
	StorageCFKeyPairID string // CloudFront key pair ID
	StorageCFKeyPath   string // Path to CloudFront private key file

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@example.com)
	MailFromName string // From display name (e.g., StrataDaily)

	// URLs
	FrontendURL string // Browser app; reset links and OAuth redirects land here
	APIBaseURL  string // Public URL of this service; used for the Google callback

	// Password reset
	PasswordResetExpiry time.Duration // How long reset links are valid (default: 1h)

	// Google OAuth configuration
	GoogleClientID     string // Google OAuth2 client ID
	GoogleClientSecret string // Google OAuth2 client secret

	// Explorer maintenance
	ReconcileInterval time.Duration // How often containment drift is repaired (default: 6h)
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
