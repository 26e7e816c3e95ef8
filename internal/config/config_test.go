package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/pennywise/internal/sheets"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("PENNYWISE_TEST_DIR", "/srv/data")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "tilde", input: "~", expected: home},
		{name: "tilde prefix", input: "~/pennywise/db.sqlite", expected: filepath.Join(home, "pennywise/db.sqlite")},
		{name: "env var", input: "$PENNYWISE_TEST_DIR/model.json", expected: "/srv/data/model.json"},
		{name: "absolute", input: "/tmp/x", expected: "/tmp/x"},
		{name: "tilde in middle untouched", input: "/a/~/b", expected: "/a/~/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/pennywise", DefaultDir())
	assert.Equal(t, "/xdg/pennywise/session", DefaultPath("session"))
}

func clearSheetsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_SPREADSHEET_ID",
		"GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(key, "")
	}
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadSheetsConfig_ViperWins(t *testing.T) {
	clearSheetsEnv(t)
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-client")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "Env Name")

	viper.Set("sheets.client_id", "viper-client")
	viper.Set("sheets.client_secret", "secret")
	viper.Set("sheets.refresh_token", "refresh")
	viper.Set("sheets.spreadsheet_id", "sheet-1")
	viper.Set("sheets.token_file", filepath.Join(t.TempDir(), "token.json"))

	cfg, err := LoadSheetsConfig()
	require.NoError(t, err)
	assert.Equal(t, "viper-client", cfg.ClientID)
	assert.Equal(t, "sheet-1", cfg.SpreadsheetID)
	assert.Equal(t, "Env Name", cfg.SpreadsheetName)
}

func TestLoadSheetsConfig_SavedToken(t *testing.T) {
	clearSheetsEnv(t)
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, sheets.SaveToken(tokenFile, &oauth2.Token{RefreshToken: "saved"}))

	viper.Set("sheets.client_id", "client")
	viper.Set("sheets.client_secret", "secret")
	viper.Set("sheets.token_file", tokenFile)

	cfg, err := LoadSheetsConfig()
	require.NoError(t, err)
	assert.Equal(t, "saved", cfg.RefreshToken)
}

func TestLoadSheetsConfig_NoCredentials(t *testing.T) {
	clearSheetsEnv(t)
	viper.Set("sheets.token_file", filepath.Join(t.TempDir(), "missing.json"))

	_, err := LoadSheetsConfig()
	assert.Error(t, err)
}

func TestLoadSheetsOAuthConfig(t *testing.T) {
	clearSheetsEnv(t)
	viper.Set("sheets.client_id", "client")
	viper.Set("sheets.client_secret", "secret")
	viper.Set("sheets.token_file", "/tmp/pw-token.json")
	viper.Set("sheets.callback_addr", "localhost:9999")

	cfg := LoadSheetsOAuthConfig()
	assert.Equal(t, "client", cfg.ClientID)
	assert.Equal(t, "/tmp/pw-token.json", cfg.TokenFile)
	assert.Equal(t, "localhost:9999", cfg.CallbackAddr)
}
