package bootstrap

import (
	"reflect"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "stratadaily",
		JWTAccessSecret:     "access-secret-for-tests-0123456789abcdef",
		JWTRefreshSecret:    "refresh-secret-for-tests-0123456789abcdef",
		JWTAccessTTL:        15 * time.Minute,
		JWTRefreshTTL:       120 * time.Hour,
		CORSOrigins:         []string{"http://localhost:3000"},
		ThrottleRequests:    300,
		ThrottleWindow:      10 * time.Minute,
		StorageType:         "local",
		FrontendURL:         "http://localhost:3000",
		APIBaseURL:          "http://localhost:8080",
		PasswordResetExpiry: time.Hour,
	}
}

func TestValidateConfig(t *testing.T) {
	core := &config.CoreConfig{Env: "dev"}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(*AppConfig) {}, false},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "postgres://x" }, true},
		{"same secrets", func(c *AppConfig) { c.JWTRefreshSecret = c.JWTAccessSecret }, true},
		{"missing secret", func(c *AppConfig) { c.JWTAccessSecret = "" }, true},
		{"refresh shorter than access", func(c *AppConfig) { c.JWTRefreshTTL = time.Minute * 5 }, true},
		{"unknown storage", func(c *AppConfig) { c.StorageType = "ftp" }, true},
		{"s3 without bucket", func(c *AppConfig) { c.StorageType = "s3"; c.StorageS3Region = "us-east-1" }, true},
		{"s3 complete", func(c *AppConfig) {
			c.StorageType = "s3"
			c.StorageS3Region = "us-east-1"
			c.StorageS3Bucket = "songs"
		}, false},
		{"bad frontend url", func(c *AppConfig) { c.FrontendURL = "not a url" }, true},
		{"bad cors origin", func(c *AppConfig) { c.CORSOrigins = []string{"not a url"} }, true},
		{"throttle disabled", func(c *AppConfig) { c.ThrottleRequests = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(core, cfg, zap.NewNop())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test,")
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitList() = %v, want %v", got, want)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v, want nil", got)
	}
}

func TestGoogleEnabled(t *testing.T) {
	cfg := validAppConfig()
	if cfg.GoogleEnabled() {
		t.Error("GoogleEnabled() = true without credentials")
	}
	cfg.GoogleClientID = "id"
	if cfg.GoogleEnabled() {
		t.Error("GoogleEnabled() = true with only a client ID")
	}
	cfg.GoogleClientSecret = "secret"
	if !cfg.GoogleEnabled() {
		t.Error("GoogleEnabled() = false with both credentials")
	}
}
