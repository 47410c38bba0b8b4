package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noFetch(t *testing.T) ParamsFetcher {
	return func(context.Context, ...string) (map[string]string, error) {
		t.Fatal("parameters must not be fetched in dev")
		return nil, nil
	}
}

func TestNewAPI_Dev(t *testing.T) {
	t.Setenv("API_DEV", "true")
	t.Setenv("API_SECRET", "secret")
	t.Setenv("API_DB_PATH", "/tmp/test.db")
	t.Setenv("API_ALLOW_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("API_ACCESS_EXPIRES_IN", "2h")
	t.Setenv("API_RATE_LIMIT", "100")

	conf, err := NewAPI(t.Context(), noFetch(t))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", conf.DB.Path)
	assert.Equal(t, "secret", conf.HTTP.JWT.Secret)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, conf.HTTP.CORS.AllowOrigins)
	assert.Equal(t, 2*time.Hour, conf.HTTP.Cookie.AccessExpiresIn)
	assert.InDelta(t, 100.0, conf.HTTP.RateLimit, 0.001)
	assert.Equal(t, "linguatune", conf.HTTP.JWT.Issuer)
	assert.Equal(t, ":8080", conf.Server.Addr)
	assert.Equal(t, 10*time.Minute, conf.LinkExpiresIn)
}

func TestNewAPI_Prod(t *testing.T) {
	t.Setenv("API_DEV", "false")

	var requested []string
	fetch := func(_ context.Context, keys ...string) (map[string]string, error) {
		requested = keys
		return map[string]string{
			"/linguatune/prod/jwt-secret": "prod-secret",
			"/linguatune/prod/db-path":    "/var/lib/linguatune.db",
		}, nil
	}

	conf, err := NewAPI(t.Context(), fetch)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/linguatune/prod/jwt-secret", "/linguatune/prod/db-path"}, requested)
	assert.Equal(t, "prod-secret", conf.HTTP.JWT.Secret)
	assert.Equal(t, "/var/lib/linguatune.db", conf.DB.Path)
}

func TestNewAPI_FetchError(t *testing.T) {
	t.Setenv("API_DEV", "false")

	errBoom := errors.New("boom")
	_, err := NewAPI(t.Context(), func(context.Context, ...string) (map[string]string, error) {
		return nil, errBoom
	})
	assert.ErrorIs(t, err, errBoom)
}

func TestNewAPI_Invalid(t *testing.T) {
	t.Setenv("API_DEV", "true")
	t.Setenv("API_SECRET", "")
	t.Setenv("API_RATE_LIMIT", "0")

	_, err := NewAPI(t.Context(), noFetch(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret is required")
	assert.Contains(t, err.Error(), "rate limit 0 must be positive")
}

func TestNewWeb_Dev(t *testing.T) {
	t.Setenv("WEB_DEV", "true")
	t.Setenv("WEB_SECRET", "secret")
	t.Setenv("WEB_ADDR", ":9090")

	conf, err := NewWeb(t.Context(), noFetch(t))
	require.NoError(t, err)
	assert.Equal(t, ":9090", conf.Server.Addr)
	assert.Equal(t, "linguatune.db", conf.DB.Path)
	assert.InDelta(t, 10.0, conf.WebHTTP.RateLimit, 0.001)
}

func TestNewBot(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name: "valid",
			env:  map[string]string{"BOT_DEV": "true", "BOT_TELEGRAM_TOKEN": "token", "BOT_DIGEST_HOUR": "8"},
		},
		{
			name:    "missing token",
			env:     map[string]string{"BOT_DEV": "true", "BOT_TELEGRAM_TOKEN": ""},
			wantErr: "telegram token is required",
		},
		{
			name:    "bad hour",
			env:     map[string]string{"BOT_DEV": "true", "BOT_TELEGRAM_TOKEN": "token", "BOT_DIGEST_HOUR": "24"},
			wantErr: "digest hour 24 must be in range 0-23",
		},
		{
			name:    "bad location",
			env:     map[string]string{"BOT_DEV": "true", "BOT_TELEGRAM_TOKEN": "token", "BOT_DIGEST_LOCATION": "Mars/Base"},
			wantErr: "invalid timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			conf, err := NewBot(t.Context(), noFetch(t))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 8, conf.DigestSchedule.Hour)
			assert.NotNil(t, conf.MustTimeLocation())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("IMPORT_DB_PATH=/from/dotenv.db\n"), 0o600))
	t.Setenv("IMPORT_DB_PATH", "")
	require.NoError(t, os.Unsetenv("IMPORT_DB_PATH"))

	require.NoError(t, LoadDotEnv(file))
	t.Cleanup(func() { os.Unsetenv("IMPORT_DB_PATH") })

	conf, err := NewImport()
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv.db", conf.DB.Path)

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestMissingKeys(t *testing.T) {
	got := missingKeys(map[string]string{"a": "1"}, []string{"a", "b", "c"})
	assert.Equal(t, []string{"b", "c"}, got)
}
