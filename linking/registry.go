package linking

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"nearlink/metrics"
)

// NonceRecord is the in-flight state of one linking attempt. Records are
// immutable after creation and exist only in memory: the private key must
// never reach durable storage, and losing the map on restart only costs the
// caller a fresh attempt.
type NonceRecord struct {
	Nonce      string
	ClientID   string
	PrivateKey *rsa.PrivateKey
	AttemptID  string
	CreatedAt  time.Time
}

// Registry tracks single-use linking nonces. A nonce appears at most once;
// after consumption or expiry it is unobservable to subsequent lookups.
type Registry struct {
	mu      sync.Mutex
	records map[string]*NonceRecord
	ttl     time.Duration

	// Now is overridable for tests that need a simulated clock.
	Now func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		records: make(map[string]*NonceRecord),
		ttl:     ttl,
	}
}

func (r *Registry) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Create registers a fresh nonce bound to the client and the attempt's
// private key. The returned attempt ID is a loggable handle; the nonce
// itself must never appear in logs.
func (r *Registry) Create(clientID string, key *rsa.PrivateKey) (nonce, attemptID string, err error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce = base64.RawURLEncoding.EncodeToString(nonceBytes)
	attemptID = uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[nonce] = &NonceRecord{
		Nonce:      nonce,
		ClientID:   clientID,
		PrivateKey: key,
		AttemptID:  attemptID,
		CreatedAt:  r.now(),
	}

	return nonce, attemptID, nil
}

// Verify reports whether the nonce exists, is within its TTL, and is bound to
// the supplied client. Expired records are evicted on the way through. Verify
// does not consume; consumption is deferred until the linkage write commits.
func (r *Registry) Verify(nonce, clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[nonce]
	if !ok {
		return false
	}
	if r.now().Sub(rec.CreatedAt) > r.ttl {
		delete(r.records, nonce)
		return false
	}
	return rec.ClientID == clientID
}

// Lookup returns the record for a nonce without mutating anything. Callers
// must still gate on Verify before trusting the record.
func (r *Registry) Lookup(nonce string) (*NonceRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[nonce]
	return rec, ok
}

// PrivateKey is a pure lookup of the nonce-bound private key. No TTL or
// client checks happen here; callers must Verify first.
func (r *Registry) PrivateKey(nonce string) (*rsa.PrivateKey, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[nonce]
	if !ok {
		return nil, false
	}
	return rec.PrivateKey, true
}

// Consume removes the record. Idempotent: consuming an absent nonce is a
// no-op. The check-and-delete runs under the registry lock, so the first
// consumer wins and later consumers observe absence.
func (r *Registry) Consume(nonce string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, nonce)
}

// Sweep removes all expired records and returns how many were dropped. Not
// required for correctness (Verify enforces TTL lazily); it only bounds
// memory growth from abandoned attempts.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	swept := 0
	for nonce, rec := range r.records {
		if now.Sub(rec.CreatedAt) > r.ttl {
			delete(r.records, nonce)
			swept++
		}
	}
	return swept
}

// Count returns the number of live records.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.records)
}

// Run sweeps expired records at the given interval until the context is
// cancelled. Meant to run as a background goroutine for the process lifetime.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if swept := r.Sweep(); swept > 0 {
				metrics.NoncesSwept.Add(float64(swept))
				log.Printf("Swept %d expired linking nonce(s)", swept)
			}
		}
	}
}
