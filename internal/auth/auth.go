// Package auth obtains an authenticated HTTP client for the Drive API.
// It runs the installed-app consent flow on first use and refreshes
// transparently afterwards, persisting refreshed tokens back to disk.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Config locates the OAuth client credentials and the cached user token.
type Config struct {
	CredentialsFile string
	TokenFile       string
	Scopes          []string
}

// NewHTTPClient returns an HTTP client carrying a usable session. Delete the
// token file after changing scopes to force a fresh consent flow.
func NewHTTPClient(ctx context.Context, cfg Config) (*http.Client, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(b, cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		tok, err = tokenFromConsent(ctx, oauthCfg)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.TokenFile, tok); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save token: %v\n", err)
		}
	}

	src := &savingTokenSource{
		src:       oauthCfg.TokenSource(ctx, tok),
		tokenFile: cfg.TokenFile,
		last:      tok,
	}
	return oauth2.NewClient(ctx, src), nil
}

// tokenFromConsent asks the user to visit the auth URL and paste the code.
func tokenFromConsent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// savingTokenSource persists refreshed tokens so access-token expiry never
// requires interactive reauth. A refresh reply that omits the refresh token
// keeps the previously saved one.
type savingTokenSource struct {
	src       oauth2.TokenSource
	tokenFile string

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.RefreshToken == "" && s.last != nil && s.last.RefreshToken != "" {
		tok.RefreshToken = s.last.RefreshToken
	}

	if s.last == nil || tok.AccessToken != s.last.AccessToken ||
		tok.RefreshToken != s.last.RefreshToken || !tok.Expiry.Equal(s.last.Expiry) {
		if err := saveToken(s.tokenFile, tok); err == nil {
			s.last = tok
		}
	}
	return tok, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
