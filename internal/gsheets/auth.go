package gsheets

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/term"

	"github.com/burakseven/takip/internal/errs"
	"github.com/burakseven/takip/internal/netcheck"
)

// OAuth artifact filenames, relative to the credential directory.
const (
	clientSecretFile = "credentials.json"
	tokenFile        = "token.json"
)

// scopes requested during consent: spreadsheet rows plus file storage for
// attachments.
var scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
}

// AuthManager owns the process-wide OAuth credential and the HTTP client
// derived from it.
//
// The credential is a legitimate singleton: concurrent callers share one
// handshake. Client() guards initialization with a mutex and double-checked
// locking so the interactive consent flow, when needed, runs at most once.
type AuthManager struct {
	credDir string
	probe   netcheck.Prober
	logger  *log.Logger

	mu     sync.Mutex
	client *http.Client
}

// NewAuthManager creates a manager reading OAuth artifacts from credDir.
// probe may be nil, in which case the default reachability probe is used.
func NewAuthManager(credDir string, probe netcheck.Prober, logger *log.Logger) *AuthManager {
	if probe == nil {
		probe = netcheck.Default
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[auth] ", log.LstdFlags)
	}
	return &AuthManager{credDir: credDir, probe: probe, logger: logger}
}

// Client returns an authorized HTTP client, performing the credential
// handshake on first call.
//
// Error taxonomy:
//   - errs.ErrMissingClientSecret: consent needed but credentials.json absent
//   - errs.ErrMissingToken: consent needed but no terminal to run it on
//   - errs.ErrNoInternet: refresh needed but the network probe failed
//   - errs.ErrAuthExpired: refresh attempted and rejected
func (a *AuthManager) Client(ctx context.Context) (*http.Client, error) {
	if c := a.cached(); c != nil {
		return c, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil { // another caller finished the handshake first
		return a.client, nil
	}

	client, err := a.buildClient(ctx)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// Reset discards the cached client so the next Client call re-runs the
// handshake. Called after ErrAuthExpired once the operator re-consents.
func (a *AuthManager) Reset() {
	a.mu.Lock()
	a.client = nil
	a.mu.Unlock()
}

func (a *AuthManager) cached() *http.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

func (a *AuthManager) buildClient(ctx context.Context) (*http.Client, error) {
	config, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	token, err := a.loadToken()
	switch {
	case err == nil && token.Valid():
		return config.Client(ctx, token), nil

	case err == nil && token.RefreshToken != "":
		// Refresh hits the token endpoint; probe first so an unplugged
		// cable reads as "no internet", not as a broken credential.
		if perr := a.probe(); perr != nil {
			return nil, perr
		}
		fresh, rerr := config.TokenSource(ctx, token).Token()
		if rerr != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrAuthExpired, rerr)
		}
		if serr := a.saveToken(fresh); serr != nil {
			a.logger.Printf("WARNING: failed to persist refreshed token: %v", serr)
		}
		return config.Client(ctx, fresh), nil

	default:
		return a.consentFlow(ctx, config)
	}
}

// loadConfig reads the OAuth client secret. Absence is a configuration
// error, raised immediately and never swallowed.
func (a *AuthManager) loadConfig() (*oauth2.Config, error) {
	path := filepath.Join(a.credDir, clientSecretFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errs.ErrMissingClientSecret, path)
		}
		return nil, fmt.Errorf("failed to read client secret: %w", err)
	}

	config, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret: %w", err)
	}
	return config, nil
}

func (a *AuthManager) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(filepath.Join(a.credDir, tokenFile))
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

func (a *AuthManager) saveToken(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	path := filepath.Join(a.credDir, tokenFile)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// consentFlow runs the interactive OAuth consent: print the auth URL, read
// the verification code from the terminal, exchange it for a token.
func (a *AuthManager) consentFlow(ctx context.Context, config *oauth2.Config) (*http.Client, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("%w: interactive consent requires a terminal", errs.ErrMissingToken)
	}
	if err := a.probe(); err != nil {
		return nil, err
	}

	url := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser and paste the code:\n%s\n> ", url)

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}

	token, err := config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := a.saveToken(token); err != nil {
		a.logger.Printf("WARNING: failed to persist token: %v", err)
	}
	return config.Client(ctx, token), nil
}
