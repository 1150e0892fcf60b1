package cleanblog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "ADDR", "SECRET_KEY", "FLASK_KEY", "DB_URI", "SITE_NAME", "SITE_URL",
		"SITE_DESCRIPTION", "STATIC_DIR", "COOKIE_SECURE", "REDIS_URL", "POST_CACHE_TTL", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SECRET_KEY", "dev-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":5003", cfg.Addr)
	assert.Equal(t, "sqlite:///"+DefaultDatabasePath, cfg.DatabaseURI)
	assert.Equal(t, "public", cfg.StaticDir)
	assert.Equal(t, 5*time.Minute, cfg.PostCacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.CookieSecure)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SECRET_KEY", "dev-secret")
	t.Setenv("ADDR", ":8080")
	t.Setenv("DB_URI", "postgres://localhost/blog")
	t.Setenv("SITE_URL", "https://blog.example.com/")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("POST_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "postgres://localhost/blog", cfg.DatabaseURI)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 30*time.Second, cfg.PostCacheTTL)
	assert.Equal(t, "https://blog.example.com", cfg.Site().URL)
}

func TestLoadConfigFlaskKeyFallback(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("FLASK_KEY", "legacy-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "legacy-secret", cfg.SecretKey)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	clearConfigEnv(t)
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "SECRET_KEY is required")
}

func TestValidate(t *testing.T) {
	base := Config{SecretKey: "short", LogLevel: "info"}
	assert.NoError(t, base.Validate())

	prod := base
	prod.Env = "production"
	assert.ErrorContains(t, prod.Validate(), "at least 32 characters")
	prod.SecretKey = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, prod.Validate())

	bad := base
	bad.LogLevel = "verbose"
	assert.Error(t, bad.Validate())

	neg := base
	neg.PostCacheTTL = -time.Second
	assert.Error(t, neg.Validate())
}
