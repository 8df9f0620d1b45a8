package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_ProviderConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("PROVIDER_BASE_URL", "https://pms.example.com")
	os.Setenv("PROVIDER_USERNAME", "frontdesk")
	os.Setenv("PROVIDER_NAV_RETRIES", "5")
	os.Setenv("PROVIDER_NAV_TIMEOUT_SECONDS", "30")
	defer func() {
		os.Unsetenv("PROVIDER_BASE_URL")
		os.Unsetenv("PROVIDER_USERNAME")
		os.Unsetenv("PROVIDER_NAV_RETRIES")
		os.Unsetenv("PROVIDER_NAV_TIMEOUT_SECONDS")
	}()

	// Load config
	cfg, err := Load()
	assert.NoError(t, err)

	// Verify provider config
	assert.Equal(t, "https://pms.example.com", cfg.Provider.BaseURL)
	assert.Equal(t, "frontdesk", cfg.Provider.Username)
	assert.Equal(t, 5, cfg.Provider.NavRetries)
	assert.Equal(t, 30*time.Second, cfg.Provider.NavTimeout)
	assert.Equal(t, "https://pms.example.com/login", cfg.Provider.LoginURL())
	assert.Equal(t, "https://pms.example.com/whiteboard", cfg.Provider.PatientListURL())
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("PROVIDER_BASE_URL")
	os.Unsetenv("PROVIDER_NAV_RETRIES")
	os.Unsetenv("PROVIDER_CATEGORY")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, 3, cfg.Provider.NavRetries)
	assert.Equal(t, "Neurology", cfg.Provider.Category)
	assert.Equal(t, 45*time.Second, cfg.Provider.LoginTimeout)
	assert.True(t, cfg.Provider.Headless)
}
