package dashboard

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// AccountScope caches the accounts the session user may query.
type AccountScope struct {
	dir    health.AccountDirectory
	userID string
	logger *log.Logger

	mu       sync.RWMutex
	accounts []string
	loaded   bool
}

// NewAccountScope creates an account scope for userID.
func NewAccountScope(dir health.AccountDirectory, userID string, logger *log.Logger) *AccountScope {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &AccountScope{dir: dir, userID: userID, logger: logger}
}

// Refresh reloads the allowed accounts from the directory. On failure the
// previously loaded list is kept.
func (a *AccountScope) Refresh(ctx context.Context) ([]string, error) {
	accounts, err := a.dir.AllowedAccounts(ctx, a.userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", health.ErrDirectoryUnavailable, err)
	}

	seen := make(map[string]bool, len(accounts))
	out := make([]string, 0, len(accounts))
	for _, id := range accounts {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}

	a.mu.Lock()
	a.accounts = out
	a.loaded = true
	a.mu.Unlock()

	a.logger.Printf("Loaded %d allowed accounts for user %s", len(out), a.userID)
	return append([]string(nil), out...), nil
}

// Accounts returns a copy of the last loaded account list.
func (a *AccountScope) Accounts() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.accounts...)
}

// Loaded reports whether Refresh has succeeded at least once.
func (a *AccountScope) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loaded
}
