package highlight

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/readwell/readwell-server/internal/domain"
)

// TempIDPrefix marks identifiers of highlights that are painted but not yet persisted.
const TempIDPrefix = "temp-"

// DefaultReconcileTTL bounds how long a pending highlight waits for its durable ID.
const DefaultReconcileTTL = 30 * time.Second

// PendingKey identifies a pending highlight by content, which is all a
// confirmation can be matched on.
type PendingKey struct {
	Text  string
	Color domain.Color
	Start int
	End   int
}

// KeyOfDraft returns the reconciliation key of a draft.
func KeyOfDraft(d domain.HighlightDraft) PendingKey {
	return PendingKey{Text: d.Text, Start: d.StartOffset, End: d.EndOffset, Color: domain.ResolveColor(string(d.Color))}
}

// KeyOfHighlight returns the reconciliation key of a persisted highlight.
func KeyOfHighlight(h domain.Highlight) PendingKey {
	return PendingKey{Text: h.Text, Start: h.StartOffset, End: h.EndOffset, Color: domain.ResolveColor(string(h.Color))}
}

// Pending is an optimistic highlight waiting for its durable ID.
type Pending struct {
	CreatedAt time.Time
	ExpiresAt time.Time
	TempID    string
	Key       PendingKey
}

// Reconciler maps temporary highlight IDs to pending confirmations.
// Entries live for a bounded time; expired entries are dropped on the next access.
type Reconciler struct {
	now     func() time.Time
	entries map[string]Pending
	mu      sync.Mutex
	ttl     time.Duration
	seq     int
}

// NewReconciler creates a reconciler. A ttl of zero or less uses DefaultReconcileTTL.
func NewReconciler(ttl time.Duration) *Reconciler {
	if ttl <= 0 {
		ttl = DefaultReconcileTTL
	}
	return &Reconciler{ttl: ttl, now: time.Now, entries: make(map[string]Pending)}
}

// IsTempID reports whether id was issued by a reconciler.
func IsTempID(id string) bool {
	return len(id) > len(TempIDPrefix) && strings.HasPrefix(id, TempIDPrefix)
}

// Track registers a draft and returns its pending entry with a fresh temporary ID.
func (r *Reconciler) Track(d domain.HighlightDraft) Pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireLocked()

	r.seq++
	now := r.now()
	p := Pending{
		TempID:    TempIDPrefix + strconv.Itoa(r.seq),
		Key:       KeyOfDraft(d),
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	r.entries[p.TempID] = p
	return p
}

// Confirm matches a persisted highlight against the pending entries. It
// succeeds only when exactly one live entry has the same key; that entry is
// removed and its temporary ID returned. With zero or several candidates
// nothing changes and the markers stay as they are until the next repaint.
func (r *Reconciler) Confirm(h domain.Highlight) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireLocked()

	key := KeyOfHighlight(h)
	match := ""
	for id, p := range r.entries {
		if p.Key != key {
			continue
		}
		if match != "" {
			return "", false
		}
		match = id
	}
	if match == "" {
		return "", false
	}
	delete(r.entries, match)
	return match, true
}

// Discard drops a pending entry.
func (r *Reconciler) Discard(tempID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[tempID]
	delete(r.entries, tempID)
	return ok
}

// Pending returns the live entries, oldest first.
func (r *Reconciler) Pending() []Pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireLocked()

	out := make([]Pending, 0, len(r.entries))
	for _, p := range r.entries {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Pending) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareTempIDs(a.TempID, b.TempID)
	})
	return out
}

// Expire drops expired entries and returns their temporary IDs.
func (r *Reconciler) Expire() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expireLocked()
}

func (r *Reconciler) expireLocked() []string {
	now := r.now()
	var expired []string
	for id, p := range r.entries {
		if !now.Before(p.ExpiresAt) {
			expired = append(expired, id)
			delete(r.entries, id)
		}
	}
	slices.SortFunc(expired, compareTempIDs)
	return expired
}

func compareTempIDs(a, b string) int {
	na, _ := strconv.Atoi(a[len(TempIDPrefix):])
	nb, _ := strconv.Atoi(b[len(TempIDPrefix):])
	return na - nb
}
