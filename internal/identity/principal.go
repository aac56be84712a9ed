// Package identity turns whatever the embedding application knows about the
// caller into a single canonical user id.
package identity

import (
	"github.com/google/uuid"

	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
)

// Kind tags the shape of a Principal
type Kind int

const (
	// KindNone means no caller identity could be resolved
	KindNone Kind = iota
	// KindID is a bare user id
	KindID
	// KindRecord is an object that carries a user id
	KindRecord
	// KindUnsupported is any other shape
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindID:
		return "id"
	case KindRecord:
		return "record"
	default:
		return "unsupported"
	}
}

// Record is implemented by identity objects that carry a user id
type Record interface {
	IdentityID() string
}

// Principal is the resolved caller identity
type Principal struct {
	kind   Kind
	id     string
	record Record
}

// None returns the empty principal
func None() Principal {
	return Principal{kind: KindNone}
}

// FromID wraps a bare user id
func FromID(id string) Principal {
	return Principal{kind: KindID, id: id}
}

// FromRecord wraps an object carrying a user id
func FromRecord(r Record) Principal {
	if r == nil {
		return None()
	}
	return Principal{kind: KindRecord, record: r}
}

// FromValue classifies an arbitrary value: nil is None, a string is an id,
// a Record is a record and anything else is unsupported.
func FromValue(v interface{}) Principal {
	switch x := v.(type) {
	case nil:
		return None()
	case Principal:
		return x
	case string:
		return FromID(x)
	case Record:
		return FromRecord(x)
	default:
		return Principal{kind: KindUnsupported}
	}
}

// Kind returns the shape of the principal
func (p Principal) Kind() Kind {
	return p.kind
}

// UserID returns the canonical user id. None yields ErrUnauthorized; an
// unsupported shape or an id that is not a UUID yields ErrInvalidPrincipal.
func (p Principal) UserID() (string, error) {
	var raw string
	switch p.kind {
	case KindNone:
		return "", apperrors.ErrUnauthorized
	case KindID:
		raw = p.id
	case KindRecord:
		var ok bool
		if raw, ok = recordID(p.record); !ok {
			return "", apperrors.ErrUnauthorized
		}
	default:
		return "", apperrors.ErrInvalidPrincipal
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperrors.ErrInvalidPrincipal.WithCause(err)
	}
	return id.String(), nil
}

// recordID reads the id of r; a nil pointer hidden in the interface panics
// in IdentityID and is reported as no record.
func recordID(r Record) (id string, ok bool) {
	defer func() {
		if recover() != nil {
			id, ok = "", false
		}
	}()
	return r.IdentityID(), true
}
