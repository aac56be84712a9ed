// Package session keeps short-lived notices that are shown to the user on
// their next page view.
package session

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/n1rocket/go-profile-validity/internal/domain"
)

// ErrNoSession is returned when a store is asked for an empty session id
var ErrNoSession = errors.New("session id is required")

// Message is a notice recorded against a session, keyed by ID
type Message struct {
	ID string `json:"id"`
	domain.Notice
	Created time.Time `json:"created"`
}

// NewMessage assigns a fresh id to notice
func NewMessage(notice domain.Notice) Message {
	return Message{
		ID:      uuid.NewString(),
		Notice:  notice,
		Created: time.Now().UTC(),
	}
}

// Store keeps per-session notices
type Store interface {
	// Append records notice for sid and returns the stored message
	Append(ctx context.Context, sid string, notice domain.Notice) (Message, error)
	// Drain returns and removes every message for sid, oldest first
	Drain(ctx context.Context, sid string) ([]Message, error)
}

func sortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Created.Equal(msgs[j].Created) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].Created.Before(msgs[j].Created)
	})
}
