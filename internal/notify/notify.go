package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/logger"
)

// DefaultFeedSize is used when a feed is created with a non-positive size.
const DefaultFeedSize = 50

// Notifier shows an error message to the user. It never blocks on the user
// and never fails.
type Notifier interface {
	Error(ctx context.Context, message string)
}

// LogNotifier writes every notification as a WARN line.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs through l.
func NewLogNotifier(l *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

// Error logs message with the request-scoped fields found in ctx.
func (n *LogNotifier) Error(ctx context.Context, message string) {
	logger.WithContext(ctx, n.logger).WarnContext(ctx, "user notification",
		slog.String("message", message),
	)
}

// Entry is one notification kept by a Feed.
type Entry struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Feed keeps the most recent notifications in a ring buffer so a front end
// can poll for them. IDs start at 1 and only grow.
type Feed struct {
	mu      sync.RWMutex
	entries []Entry
	next    int // slot the next entry is written to
	full    bool
	lastID  int64
	now     func() time.Time
}

// NewFeed creates a feed holding at most size entries.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{
		entries: make([]Entry, size),
		now:     time.Now,
	}
}

// Error appends message to the feed, evicting the oldest entry when full.
func (f *Feed) Error(_ context.Context, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastID++
	f.entries[f.next] = Entry{ID: f.lastID, Message: message, CreatedAt: f.now().UTC()}
	f.next = (f.next + 1) % len(f.entries)
	if f.next == 0 {
		f.full = true
	}
}

// Since returns the retained entries with an ID greater than id, oldest first.
func (f *Feed) Since(id int64) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Entry, 0)
	for _, e := range f.ordered() {
		if e.ID > id {
			out = append(out, e)
		}
	}
	return out
}

// LastID returns the ID of the newest entry, or 0 if nothing was recorded.
func (f *Feed) LastID() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastID
}

func (f *Feed) ordered() []Entry {
	if !f.full {
		return f.entries[:f.next]
	}
	out := make([]Entry, 0, len(f.entries))
	out = append(out, f.entries[f.next:]...)
	return append(out, f.entries[:f.next]...)
}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

// Error forwards message to every notifier.
func (m Multi) Error(ctx context.Context, message string) {
	for _, n := range m {
		n.Error(ctx, message)
	}
}
