package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/gatepass/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, errs := config.Load("")
	require.Empty(t, errs)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 24*time.Hour, cfg.CredentialValidity())
	assert.Equal(t, 1500*time.Millisecond, cfg.ScanDebounce())
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
	assert.Equal(t, 365, cfg.RetentionDays)
	assert.Equal(t, "log", cfg.SMS.Provider)
	assert.Empty(t, cfg.Reports.Bucket)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatepass.yaml")
	yaml := `
http_addr: ":7000"
retention_days: 30
tracing: true
sms:
  provider: http
  base_url: https://sms.example.test
  api_key: file-key
reports:
  s3_bucket: reports-bucket
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("GATEPASS_HTTP_ADDR", ":7001")
	t.Setenv("GATEPASS_SMS_API_KEY", "env-key")

	cfg, errs := config.Load(path)
	require.Empty(t, errs)

	assert.Equal(t, ":7001", cfg.HTTPAddr, "env wins over file")
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.True(t, cfg.Tracing)
	assert.Equal(t, "http", cfg.SMS.Provider)
	assert.Equal(t, "env-key", cfg.SMS.APIKey)
	assert.Equal(t, "reports-bucket", cfg.Reports.Bucket)
}

func TestLoad_ProdRequiresSecrets(t *testing.T) {
	t.Setenv("GATEPASS_ENV", "prod")

	_, errs := config.Load("")
	assert.True(t, containsErr(errs, config.ErrMissingSecret))
	assert.True(t, containsErr(errs, config.ErrMissingJWTSecret))

	t.Setenv("GATEPASS_SECRET", "s")
	t.Setenv("GATEPASS_JWT_SECRET", "j")
	_, errs = config.Load("")
	assert.Empty(t, errs)
}

func TestLoad_CollectsEveryProblem(t *testing.T) {
	t.Setenv("GATEPASS_ENV", "staging")
	t.Setenv("GATEPASS_TIMEZONE", "Mars/Olympus")
	t.Setenv("GATEPASS_SMS_PROVIDER", "pigeon")
	t.Setenv("GATEPASS_RETENTION_DAYS", "forever")

	_, errs := config.Load("")
	assert.True(t, containsErr(errs, config.ErrInvalidEnv))
	assert.True(t, containsErr(errs, config.ErrInvalidTimezone))
	assert.True(t, containsErr(errs, config.ErrInvalidProvider))
	assert.Len(t, errs, 4)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, errs := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Nil(t, cfg)
	require.Len(t, errs, 1)
}

func containsErr(errs []error, target error) bool {
	for _, e := range errs {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}
