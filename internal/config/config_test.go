package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMemoryDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.AllowedOrigins)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPTTL())
	assert.Equal(t, 5<<20, cfg.Import.MaxUploadBytes())
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":        {"STORE_DRIVER": "sqlite"},
		"postgres without dsn":  {"STORE_DRIVER": "postgres", "POSTGRES_DSN": ""},
		"sendgrid without key":  {"STORE_DRIVER": "memory", "MAIL_PROVIDER": "sendgrid", "SENDGRID_API_KEY": ""},
		"weak bcrypt cost":      {"STORE_DRIVER": "memory", "AUTH_BCRYPT_COST": "4"},
		"production dev secret": {"STORE_DRIVER": "memory", "APP_ENV": "Production", "AUTH_JWT_SECRET": ""},
		"non numeric redis db":  {"STORE_DRIVER": "memory", "REDIS_DB": "one"},
		"unknown mail provider": {"STORE_DRIVER": "memory", "MAIL_PROVIDER": "smtp"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
	assert.Equal(t, 3*time.Second, AppConfig{RequestTimeoutSeconds: 3}.RequestTimeout())
	assert.Equal(t, 10*time.Minute, AuthConfig{OTPTTLMinutes: 10}.OTPTTL())
	assert.Equal(t, 2<<20, ImportConfig{MaxUploadMB: 2}.MaxUploadBytes())
	assert.Equal(t, "127.0.0.1:5000", AppConfig{Host: "127.0.0.1", Port: "5000"}.Addr())
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SCHEDULO_TEST_INT", "abc")
	assert.Equal(t, 7, getEnvAsInt("SCHEDULO_TEST_INT", 7))
	t.Setenv("SCHEDULO_TEST_INT", "12")
	assert.Equal(t, 12, getEnvAsInt("SCHEDULO_TEST_INT", 7))
}
