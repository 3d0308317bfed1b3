package sheets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// TokenFileName is the saved OAuth2 token's file name inside harbor's config directory.
const TokenFileName = "sheets-token.json"

const (
	defaultCallbackAddr = "localhost:8080"
	callbackPath        = "/callback"
	consentTimeout      = 5 * time.Minute
)

// OAuth2Config identifies the OAuth client harbor exports with and where its token is kept.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	// CallbackAddr is the local host:port the consent redirect lands on.
	CallbackAddr string
}

func (c OAuth2Config) callbackAddr() string {
	if c.CallbackAddr == "" {
		return defaultCallbackAddr
	}
	return c.CallbackAddr
}

// clientConfig builds the client config shared by the consent flow and the export writer.
func (c OAuth2Config) clientConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://" + c.callbackAddr() + callbackPath,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// GetOrCreateToken returns the saved token when it carries a refresh token,
// and otherwise runs Authorize. prompt receives the consent URL.
func GetOrCreateToken(ctx context.Context, cfg OAuth2Config, prompt func(consentURL string)) (*oauth2.Token, error) {
	if cfg.TokenFile != "" {
		token, err := LoadToken(cfg.TokenFile)
		switch {
		case err == nil && token.RefreshToken != "":
			slog.Debug("Using saved Sheets token", "file", cfg.TokenFile)
			return token, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			slog.Warn("Ignoring unreadable Sheets token", "file", cfg.TokenFile, "error", err)
		}
	}
	return Authorize(ctx, cfg, prompt)
}

// Authorize runs the browser consent flow: it serves the redirect on
// CallbackAddr, hands the consent URL to prompt, exchanges the returned code
// and saves the token to TokenFile.
func Authorize(ctx context.Context, cfg OAuth2Config, prompt func(consentURL string)) (*oauth2.Token, error) {
	state, err := newState()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.callbackAddr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the consent redirect on %s: %w", cfg.callbackAddr(), err)
	}

	results := make(chan consentResult, 1)
	mux := http.NewServeMux()
	mux.Handle(callbackPath, callbackHandler(state, results))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if serveErr := server.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			deliver(results, consentResult{err: fmt.Errorf("consent callback server failed: %w", serveErr)})
		}
	}()
	defer func() {
		if shutdownErr := server.Shutdown(context.Background()); shutdownErr != nil {
			slog.Warn("Failed to stop consent callback server", "error", shutdownErr)
		}
	}()

	conf := cfg.clientConfig()
	prompt(conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	waitCtx, cancel := context.WithTimeout(ctx, consentTimeout)
	defer cancel()

	var res consentResult
	select {
	case res = <-results:
	case <-waitCtx.Done():
		return nil, fmt.Errorf("no consent received: %w", waitCtx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	token, err := conf.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if cfg.TokenFile != "" {
		if err := SaveToken(cfg.TokenFile, token); err != nil {
			return nil, err
		}
		slog.Info("Saved Sheets token", "file", cfg.TokenFile)
	}
	return token, nil
}

type consentResult struct {
	err  error
	code string
}

// deliver passes on the first result only; later redirects are dropped.
func deliver(results chan<- consentResult, res consentResult) {
	select {
	case results <- res:
	default:
	}
}

const consentPage = `<html><body><h1>harbor: %s</h1><p>%s</p></body></html>`

// callbackHandler accepts the consent redirect when its state matches.
func callbackHandler(state string, results chan<- consentResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		if denied := q.Get("error"); denied != "" {
			deliver(results, consentResult{err: fmt.Errorf("google sheets access was not granted: %s", denied)})
			w.WriteHeader(http.StatusForbidden)
			_, _ = fmt.Fprintf(w, consentPage, "access not granted", "Run 'harbor auth sheets' again to retry.")
			return
		}

		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			return
		}

		deliver(results, consentResult{code: code})
		_, _ = fmt.Fprintf(w, consentPage, "Google Sheets connected", "You can close this tab and return to the terminal.")
	})
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- harbor's own token file
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", path, err)
	}
	return token, nil
}

// SaveToken writes token to path, readable only by the current user.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}
