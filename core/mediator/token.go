package mediator

import (
	"time"

	"github.com/google/uuid"
)

// Token identifies one subscription or one cached message.
// Tokens are immutable values; two tokens are equal when their IDs are equal.
// The zero Token is the "null" token and is rejected wherever a token is required.
type Token struct {
	id        uuid.UUID
	message   string
	createdAt time.Time
}

func newToken(message string, now time.Time) Token {
	return Token{
		id:        uuid.New(),
		message:   message,
		createdAt: now,
	}
}

// ID returns the unique identifier.
func (t Token) ID() uuid.UUID { return t.id }

// Message returns the message name the token was issued for.
func (t Token) Message() string { return t.message }

// CreatedAt returns when the token was issued.
func (t Token) CreatedAt() time.Time { return t.createdAt }

// IsZero reports whether t is the null token.
func (t Token) IsZero() bool { return t.id == uuid.Nil }

// Equal reports whether both tokens carry the same ID.
func (t Token) Equal(other Token) bool { return t.id == other.id }

// String renders the token as "message/id".
func (t Token) String() string {
	if t.IsZero() {
		return "<nil>"
	}
	return t.message + "/" + t.id.String()
}
