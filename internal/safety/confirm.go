package safety

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jamesprial/gqlops/internal/catalog"
)

const tokenTTL = 5 * time.Minute

// pendingConfirmation holds the metadata for an outstanding confirmation token.
type pendingConfirmation struct {
	operation string
	summary   string
	createdAt time.Time
}

// ConfirmationTracker manages single-use, time-limited confirmation tokens
// for operations that change remote state. A token is only valid for the
// operation it was issued for.
type ConfirmationTracker struct {
	guarded map[string]struct{}
	now     func() time.Time

	mu     sync.Mutex
	tokens map[string]*pendingConfirmation
}

// NewConfirmationTracker returns a tracker guarding the named operations. A
// nil or empty slice guards nothing.
func NewConfirmationTracker(operations []string) *ConfirmationTracker {
	ct := &ConfirmationTracker{
		guarded: make(map[string]struct{}, len(operations)),
		now:     time.Now,
		tokens:  make(map[string]*pendingConfirmation),
	}
	for _, op := range operations {
		ct.guarded[op] = struct{}{}
	}
	return ct
}

// MutationNames returns the names of every mutation-kind operation.
func MutationNames(ops []catalog.Operation) []string {
	var names []string
	for _, op := range ops {
		if op.Kind == "mutation" {
			names = append(names, op.Name)
		}
	}
	return names
}

// NeedsConfirmation reports whether operation is guarded. A nil tracker
// guards nothing.
func (ct *ConfirmationTracker) NeedsConfirmation(operation string) bool {
	if ct == nil {
		return false
	}
	_, ok := ct.guarded[operation]
	return ok
}

// sweepExpired removes all tokens whose age exceeds tokenTTL. The caller must
// hold ct.mu.
func (ct *ConfirmationTracker) sweepExpired() {
	now := ct.now()
	for token, pending := range ct.tokens {
		if now.Sub(pending.createdAt) > tokenTTL {
			delete(ct.tokens, token)
		}
	}
}

// RequestConfirmation issues a token for operation. Tokens are valid for 5
// minutes and are single-use.
func (ct *ConfirmationTracker) RequestConfirmation(operation, summary string) string {
	token := uuid.NewString()

	ct.mu.Lock()
	ct.sweepExpired()
	ct.tokens[token] = &pendingConfirmation{
		operation: operation,
		summary:   summary,
		createdAt: ct.now(),
	}
	ct.mu.Unlock()

	return token
}

// Confirm consumes token and reports whether it was issued for operation and
// has not expired. A token presented for the wrong operation is consumed
// too.
func (ct *ConfirmationTracker) Confirm(token, operation string) bool {
	if token == "" {
		return false
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	pending, ok := ct.tokens[token]
	if !ok {
		return false
	}
	delete(ct.tokens, token)

	if ct.now().Sub(pending.createdAt) > tokenTTL {
		return false
	}
	return pending.operation == operation
}
