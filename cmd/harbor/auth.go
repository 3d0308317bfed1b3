package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/safe-harbor/internal/cli"
	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/config"
	"github.com/Veraticus/safe-harbor/internal/sheets"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

Opens a Google consent page and saves the resulting refresh token to
sheets-token.json in harbor's config directory, where 'harbor export'
picks it up. An existing token with a refresh token is reused.

Client credentials come from sheets.client_id and sheets.client_secret,
GOOGLE_SHEETS_CLIENT_ID and GOOGLE_SHEETS_CLIENT_SECRET, or the flags below.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	oauthCfg, err := config.LoadOAuth2Config()
	if err != nil {
		return err
	}
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		oauthCfg.ClientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		oauthCfg.ClientSecret = flagSecret
	}

	if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
		return common.NewUserError(
			"OAuth2 credentials not found: set sheets.client_id and sheets.client_secret or pass --client-id and --client-secret",
			fmt.Errorf("%w: sheets oauth client", common.ErrMissingConfig))
	}

	slog.Debug("Starting Google Sheets authentication", "token_file", oauthCfg.TokenFile)

	out := cmd.OutOrStdout()
	token, err := sheets.GetOrCreateToken(cmd.Context(), oauthCfg, func(consentURL string) {
		_, _ = fmt.Fprintln(out, cli.FormatInfo("Open this URL in your browser to grant harbor access to Google Sheets:"))
		_, _ = fmt.Fprintln(out, consentURL)
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if token.RefreshToken == "" {
		_, _ = fmt.Fprintln(out, cli.FormatWarning("Google returned no refresh token; revoke harbor's access and run 'harbor auth sheets' again"))
	}

	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Google Sheets token saved to %s", oauthCfg.TokenFile)))
	_, _ = fmt.Fprintln(out, "Run 'harbor export <snapshot-id>' to export a snapshot.")
	return nil
}
