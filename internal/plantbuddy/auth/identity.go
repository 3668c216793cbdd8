// Package auth defines the authenticated identity value that gates every
// engine operation. There are exactly two trust boundaries that can produce
// one: the mini-app channel (signed init data or a session token minted from
// it) and the bot webhook channel (where Telegram authenticates the sender
// upstream). Handlers never wrap raw user ids themselves.
package auth

import (
	"context"
	"strconv"

	"github.com/plantbuddy/plantbuddy/pkg/initdata"
)

// Identity is a verified caller. The zero value is not authenticated; the
// unexported field keeps construction inside this package.
type Identity struct {
	userID int64
}

// UserID returns the verified numeric Telegram user id.
func (i Identity) UserID() int64 { return i.userID }

// IsZero reports whether the identity is unauthenticated.
func (i Identity) IsZero() bool { return i.userID == 0 }

// String renders the id for logging and rate-limit keys.
func (i Identity) String() string { return strconv.FormatInt(i.userID, 10) }

// FromInitData converts a successful init data verification into an identity.
func FromInitData(res initdata.Result) Identity {
	return Identity{userID: res.UserID}
}

// FromSessionSubject converts a verified session token subject into an
// identity. The subject must already have been checked by the session
// verifier; this only parses its decimal form.
func FromSessionSubject(subject string) (Identity, bool) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || id == 0 {
		return Identity{}, false
	}
	return Identity{userID: id}, true
}

// FromBotUpdate trusts the sender id of a webhook update. Only the webhook
// handler may call this, after it has checked the webhook secret token; on
// that channel Telegram has already authenticated the user.
func FromBotUpdate(senderID int64) Identity {
	return Identity{userID: senderID}
}

// FromOwnerRecord trusts a user id read back from this service's own storage.
// Only the reminder dispatcher uses it, acting on behalf of users without an
// inbound request to verify.
func FromOwnerRecord(userID int64) Identity {
	return Identity{userID: userID}
}

type ctxKey struct{}

// WithIdentity attaches an identity to the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the identity attached by an auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}
