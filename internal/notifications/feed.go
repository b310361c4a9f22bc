package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/catalog-storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

const defaultFeedSize = 50

// Notifier receives user-facing feedback for completed or failed actions.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, err error)
}

// Notification is one toast shown to the user.
type Notification struct {
	ID         uuid.UUID `json:"id"`
	Level      Level     `json:"level"`
	Message    string    `json:"message"`
	StatusCode *int      `json:"statusCode,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Feed keeps the most recent notifications in memory and logs each one.
type Feed struct {
	mu    sync.Mutex
	items []Notification
	next  int
	full  bool

	logg *logger.Logger
	now  func() time.Time
}

// NewFeed returns a feed holding at most size notifications.
func NewFeed(size int, logg *logger.Logger) *Feed {
	if size <= 0 {
		size = defaultFeedSize
	}
	return &Feed{
		items: make([]Notification, size),
		logg:  logg,
		now:   time.Now,
	}
}

func (f *Feed) Success(ctx context.Context, message string) {
	f.push(ctx, Notification{Level: LevelSuccess, Message: message})
}

// Error records the user-facing message of err. Catalog failures keep their
// upstream status code.
func (f *Feed) Error(ctx context.Context, err error) {
	if err == nil {
		return
	}
	n := Notification{Level: LevelError, Message: Message(err)}
	if httpErr, ok := catalog.AsHTTPError(err); ok {
		status := httpErr.StatusCode
		n.StatusCode = &status
	}
	f.push(ctx, n)
}

// Recent returns up to limit notifications, newest first. A limit <= 0
// returns everything retained.
func (f *Feed) Recent(limit int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := f.next
	if f.full {
		count = len(f.items)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]Notification, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (f.next - 1 - i + len(f.items)) % len(f.items)
		out = append(out, f.items[idx])
	}
	return out
}

func (f *Feed) push(ctx context.Context, n Notification) {
	n.ID = uuid.New()
	n.CreatedAt = f.now().UTC()

	f.mu.Lock()
	f.items[f.next] = n
	f.next = (f.next + 1) % len(f.items)
	if f.next == 0 {
		f.full = true
	}
	f.mu.Unlock()

	if f.logg == nil {
		return
	}
	ctx = f.logg.WithFields(ctx, map[string]any{
		"notification_id":    n.ID.String(),
		"notification_level": string(n.Level),
		"notification_text":  n.Message,
	})
	f.logg.Info(ctx, "notification.sent")
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	if httpErr, ok := catalog.AsHTTPError(err); ok {
		return httpErr.Message
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return catalog.GenericMessage
}
