package config

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/safe-harbor/internal/sheets"
)

// LoadOAuth2Config resolves the OAuth client used by 'harbor auth sheets'.
// Client credentials come from viper (config file or HARBOR_ env vars), then
// GOOGLE_SHEETS_CLIENT_ID and GOOGLE_SHEETS_CLIENT_SECRET. The token lives in
// harbor's config directory unless sheets.token_file says otherwise.
func LoadOAuth2Config() (sheets.OAuth2Config, error) {
	cfg := sheets.OAuth2Config{
		ClientID:     firstNonEmpty(viper.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID")),
		ClientSecret: firstNonEmpty(viper.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")),
		CallbackAddr: viper.GetString("sheets.callback_addr"),
	}
	if v := viper.GetString("sheets.token_file"); v != "" {
		cfg.TokenFile = ExpandPath(v)
		return cfg, nil
	}
	path, err := SheetsTokenPath()
	if err != nil {
		return sheets.OAuth2Config{}, err
	}
	cfg.TokenFile = path
	return cfg, nil
}

// LoadSheetsConfig loads Google Sheets configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or HARBOR_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. The refresh token saved by 'harbor auth sheets'
// 4. Default values
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.DefaultConfig()
	oauth, err := LoadOAuth2Config()
	if err != nil {
		return nil, err
	}

	config.ClientID = oauth.ClientID
	config.ClientSecret = oauth.ClientSecret
	config.RefreshToken = firstNonEmpty(viper.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	config.SpreadsheetID = firstNonEmpty(viper.GetString("sheets.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))

	if v := firstNonEmpty(viper.GetString("sheets.service_account_path"), os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")); v != "" {
		config.ServiceAccountPath = ExpandPath(v)
	}
	if v := firstNonEmpty(viper.GetString("sheets.spreadsheet_name"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME")); v != "" {
		config.SpreadsheetName = v
	}

	if config.RefreshToken == "" && config.ServiceAccountPath == "" && config.ClientID != "" {
		token, err := sheets.LoadToken(oauth.TokenFile)
		switch {
		case err == nil:
			config.RefreshToken = token.RefreshToken
		case !errors.Is(err, os.ErrNotExist):
			slog.Warn("Ignoring unreadable Sheets token", "file", oauth.TokenFile, "error", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
