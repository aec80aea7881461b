package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, int64(200_000), cfg.PayoutMinimumAmount)
	assert.Equal(t, "0.8", cfg.FreelancerShare.String())
	assert.Equal(t, time.Hour, cfg.ReconciliationInterval)
	assert.Equal(t, 30*time.Second, cfg.PayoutMonitorInterval)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.True(t, cfg.RunMigrations)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.Notify.SMTPHost)
	assert.Equal(t, 5, cfg.Notify.Workers)
}

func TestLoadPrefixedOverrides(t *testing.T) {
	t.Setenv("LEDGER_JWT_SECRET", testSecret)
	t.Setenv("LEDGER_PAYOUT_MINIMUM_AMOUNT", "5000")
	t.Setenv("LEDGER_FREELANCER_SHARE", "0.75")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.freelancehub.sd, https://admin.freelancehub.sd,")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USERNAME", "noreply@freelancehub.sd")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(5000), cfg.PayoutMinimumAmount)
	assert.Equal(t, "0.75", cfg.FreelancerShare.String())
	assert.Equal(t, []string{"https://app.freelancehub.sd", "https://admin.freelancehub.sd"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.RunMigrations)
	assert.Equal(t, "noreply@freelancehub.sd", cfg.Notify.SMTPFrom)
	assert.Equal(t, 465, cfg.Notify.SMTPPort)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{}},
		{name: "short secret", env: map[string]string{"JWT_SECRET": "short"}},
		{name: "share above one", env: map[string]string{"JWT_SECRET": testSecret, "FREELANCER_SHARE": "1.5"}},
		{name: "share not a number", env: map[string]string{"JWT_SECRET": testSecret, "FREELANCER_SHARE": "most"}},
		{name: "non-positive minimum", env: map[string]string{"JWT_SECRET": testSecret, "PAYOUT_MINIMUM_AMOUNT": "0"}},
		{name: "bad interval", env: map[string]string{"JWT_SECRET": testSecret, "RECONCILIATION_INTERVAL": "hourly"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,,b "))
}
