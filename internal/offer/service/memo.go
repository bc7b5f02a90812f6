package service

import (
	"context"
	"sync"
	"time"

	"github.com/troyjfarrell/offergate/internal/offer/domain"
)

// Issuer obtains a token from the issuance authority. The concrete client
// lives in internal/offer/issuer; tests substitute fakes.
type Issuer interface {
	Issue(ctx context.Context, params domain.IssuanceParams) (string, error)
}

// TokenMemo collapses concurrent and closely repeated issuance requests
// with identical canonical parameters into a single authority call.
//
// An entry is reusable while its age is at most half the token lifetime,
// so a reused token is never handed out past half of its own expiry.
// Failed issuances are not memoized: the entry is removed so the next
// identical request retries.
type TokenMemo struct {
	issuer   Issuer
	lifetime time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*memoEntry
}

type memoEntry struct {
	createdAt time.Time

	// done is closed when the issuance call completes; token/err are
	// immutable afterwards. Waiters share the one outstanding call.
	done  chan struct{}
	token string
	err   error
}

func NewTokenMemo(issuer Issuer, lifetime time.Duration) *TokenMemo {
	if lifetime <= 0 {
		lifetime = domain.DefaultTokenLifetime
	}
	return &TokenMemo{
		issuer:   issuer,
		lifetime: lifetime,
		now:      time.Now,
		entries:  make(map[string]*memoEntry),
	}
}

// ObtainToken returns a token for the given parameters, reusing an
// in-flight or fresh enough prior issuance when one exists.
func (m *TokenMemo) ObtainToken(ctx context.Context, params domain.IssuanceParams) (string, error) {
	key, err := params.Fingerprint()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && m.now().Sub(entry.createdAt) <= m.lifetime/2 {
		// Fresh entry: share its outcome, whether still pending or done.
		m.mu.Unlock()
		return entry.wait(ctx)
	}

	// Absent or stale: this caller performs the issuance. The map insert
	// happens under the same lock as the staleness check, so a concurrent
	// identical request observes the pending entry, never a gap.
	entry = &memoEntry{createdAt: m.now(), done: make(chan struct{})}
	m.entries[key] = entry
	m.mu.Unlock()

	// The call is shared by every waiter on the entry, so it must not die
	// with the initiating caller: once issuance starts there is no cancel
	// path. A caller that disappears simply never reads the outcome.
	token, err := m.issuer.Issue(context.WithoutCancel(ctx), params)

	m.mu.Lock()
	entry.token, entry.err = token, err
	close(entry.done)
	if err != nil && m.entries[key] == entry {
		// Do not cache failures; the next identical request re-issues.
		delete(m.entries, key)
	}
	m.mu.Unlock()

	return token, err
}

// SweepStale drops entries past the reuse window. Pending entries are kept:
// their waiters still share the outstanding call.
func (m *TokenMemo) SweepStale() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if m.now().Sub(entry.createdAt) <= m.lifetime/2 {
			continue
		}
		select {
		case <-entry.done:
			delete(m.entries, key)
			removed++
		default:
		}
	}
	return removed
}

func (e *memoEntry) wait(ctx context.Context) (string, error) {
	select {
	case <-e.done:
		return e.token, e.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
