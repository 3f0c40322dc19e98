package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Setenv("ENV", "TEST")
	t.Setenv("WORK_DIR", t.TempDir())
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestNewConfig_defaults(t *testing.T) {
	setEnv(t, nil)
	conf, err := NewConfig()
	require.NoError(t, err)

	assert.True(t, conf.TestMode)
	assert.Equal(t, "TEST", conf.Env)
	assert.Equal(t, AuthModeMock, conf.Auth.Mode)
	assert.True(t, conf.IsMockAuth())
	assert.Equal(t, DevSecretKey, conf.SecretKey)
	assert.Equal(t, "studesq_session", conf.Auth.CookieName)
	assert.Equal(t, 30*24*time.Hour, conf.Auth.SessionMaxAge)
	assert.Equal(t, "inmem", conf.Database.Engine)
	assert.Equal(t, int64(10*1024*1024), conf.Uploads.MaxSize)
	assert.Equal(t, []string{".pdf", ".jpg", ".jpeg", ".png"}, conf.Uploads.AllowedExtensions)
	assert.Equal(t, filepath.Join(conf.WorkDir, "uploads"), conf.Uploads.Dir)
	assert.False(t, conf.Features.WaitlistStore)
	assert.True(t, conf.Features.EarlyFounderBadge)
	assert.Equal(t, "noreply@studesq.com", conf.DefaultFromEmail.Address)
}

func TestNewConfig_env(t *testing.T) {
	setEnv(t, map[string]string{
		"NEXTAUTH_SECRET":            "nextauth",
		"FRONTEND_BASE_URL":          "https://studesq.com/",
		"AUTH_MODE":                  "GOOGLE",
		"GOOGLE_CLIENT_ID":           "id",
		"GOOGLE_CLIENT_SECRET":       "secret",
		"UPLOAD_DIR":                 "/var/uploads",
		"MAX_UPLOAD_SIZE":            "1024",
		"ALLOWED_EXTENSIONS":         " .PDF, .png ,",
		"ENABLE_WAITLIST_STORE":      "true",
		"ENABLE_EARLY_FOUNDER_BADGE": "false",
		"DATABASE_ENGINE":            "postgres",
		"DATABASE_PORT":              "6543",
	})
	conf, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "nextauth", conf.SecretKey)
	assert.Equal(t, "https://studesq.com", conf.FrontendBaseURL)
	assert.True(t, conf.IsGoogleAuth())
	assert.Equal(t, "id", conf.Auth.Google.ClientID)
	assert.Equal(t, "/var/uploads", conf.Uploads.Dir)
	assert.Equal(t, int64(1024), conf.Uploads.MaxSize)
	assert.Equal(t, []string{".pdf", ".png"}, conf.Uploads.AllowedExtensions)
	assert.True(t, conf.Features.WaitlistStore)
	assert.False(t, conf.Features.EarlyFounderBadge)
	assert.Equal(t, "postgres", conf.Database.Engine)
	assert.Equal(t, "localhost:6543", conf.DatabaseAddress())
}

func TestNewConfig_dotEnv(t *testing.T) {
	setEnv(t, nil)
	wd := os.Getenv("WORK_DIR")
	require.NoError(t, os.MkdirAll(filepath.Join(wd, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(wd, "config", ".env.test"), []byte("APP_NAME=Dotenv\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("APP_NAME") })

	conf, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "Dotenv", conf.AppName)
}

func TestNewConfig_errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{name: "unknown auth mode", env: map[string]string{"AUTH_MODE": "ldap"}, wantErr: errUnknownAuthMode},
		{name: "google without keys", env: map[string]string{"AUTH_MODE": "google", "GOOGLE_CLIENT_ID": "id"}, wantErr: errMissingGoogleKeys},
		{name: "prod without secret", env: map[string]string{"ENV": "PROD"}, wantErr: errInsecureSecret},
		{name: "prod with dev secret", env: map[string]string{"ENV": "PROD", "SECRET_KEY": DevSecretKey}, wantErr: errInsecureSecret},
		{name: "invalid from email", env: map[string]string{"DEFAULT_FROM_EMAIL": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := NewConfig()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			}
		})
	}

	t.Run("prod with secret", func(t *testing.T) {
		setEnv(t, map[string]string{"ENV": "PROD", "SECRET_KEY": "s3cr3t"})
		conf, err := NewConfig()
		require.NoError(t, err)
		assert.True(t, conf.IsProduction())
		assert.False(t, conf.Debug)
		assert.False(t, conf.TestMode)
	})
}
