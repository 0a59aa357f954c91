package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("APPENV", "test")
	os.Setenv("JWTSECRET", "test-secret-123")
	os.Exit(m.Run())
}

// Test that LoadConfig returns a non-nil config and respects APPENV=test
func TestLoadConfigAndConnectDatabase_TestEnv(t *testing.T) {
	cfg := LoadConfig()
	require.NotNil(t, cfg)
	assert.True(t, cfg.IsTest())

	db, err := ConnectDatabase()
	require.NoError(t, err)
	require.NotNil(t, db)

	assert.Equal(t, "sqlite", db.Dialector.Name())
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := FromViper(NewViper())

	assert.Equal(t, "DentPlanner", cfg.ClinicName)
	assert.Equal(t, "@every 30s", cfg.ReminderSpec)
	assert.Equal(t, []int{12, 24, 48, 72}, cfg.ReminderLeadHours)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "v19.0", cfg.WhatsAppAPIVersion)
	assert.Equal(t, 5, cfg.LoginRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.LoginRateWindow)
	assert.Equal(t, "test-secret-123", cfg.JWTSecret)
}

func TestFromViper_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APPPORT", "8081")
	t.Setenv("DBDRIVER", "Postgres")
	t.Setenv("REMINDER_LEAD_HOURS", "6, 24 ,bogus,-1")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SERVER_URL", "https://api.example/")
	t.Setenv("WHATSAPP_PROVIDER", "TWILIO")

	cfg := FromViper(NewViper())

	assert.Equal(t, uint16(8081), cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []int{6, 24}, cfg.ReminderLeadHours)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "https://api.example", cfg.ServerURL)
	assert.Equal(t, "twilio", cfg.WhatsAppProvider)
}

func TestOpenDatabase_UnsupportedDriver(t *testing.T) {
	_, err := OpenDatabase(&Config{AppEnv: "production", DBDriver: "oracle"})
	assert.Error(t, err)
}
