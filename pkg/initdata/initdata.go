// Package initdata verifies Telegram Mini App init data.
//
// A Mini App proves it is a freshly issued session by presenting the
// query-string payload Telegram hands to the web view. The payload carries a
// keyed-hash signature over every other field, derived from the bot token.
// This package reproduces Telegram's verification algorithm exactly:
//
//	secret    = HMAC-SHA256(key="WebAppData", msg=bot_token)
//	check     = "\n".join(sorted "key=value" pairs, hash excluded)
//	signature = hex(HMAC-SHA256(key=secret, msg=check))
package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Verification failures. All of them mean the caller is unauthenticated and
// the request must be rejected; messages are deliberately minimal and never
// include payload material.
var (
	ErrMissingPayload = errors.New("initdata: missing payload")
	ErrMissingHash    = errors.New("initdata: missing hash")
	ErrBadSignature   = errors.New("initdata: bad signature")
	ErrExpired        = errors.New("initdata: payload expired")
	ErrNoIdentity     = errors.New("initdata: no user identity")
)

const firstStageKey = "WebAppData"

// Result is the outcome of a successful verification.
type Result struct {
	// UserID is the numeric Telegram user identifier the payload was issued for.
	UserID int64

	// AuthDate is the issue time reported by the payload, zero when the
	// payload carried no parseable auth_date.
	AuthDate time.Time
}

// Verifier checks init data payloads against a single bot credential. The
// second-stage signing key is derived once at construction; the credential
// itself is not retained.
type Verifier struct {
	secret []byte
	maxAge time.Duration
}

// NewVerifier derives the signing key for the given bot token. Payloads older
// than maxAge are rejected; maxAge <= 0 disables the freshness check.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	mac := hmac.New(sha256.New, []byte(firstStageKey))
	mac.Write([]byte(botToken))

	return &Verifier{
		secret: mac.Sum(nil),
		maxAge: maxAge,
	}
}

// Verify checks the signature and freshness of a raw init data payload and
// extracts the caller's identity. now is taken explicitly so callers control
// the freshness clock.
func (v *Verifier) Verify(raw string, now time.Time) (Result, error) {
	if raw == "" {
		return Result{}, ErrMissingPayload
	}

	pairs := parsePairs(raw)

	receivedHash, ok := pairs["hash"]
	if !ok || receivedHash == "" {
		return Result{}, ErrMissingHash
	}
	delete(pairs, "hash")

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(checkString(pairs)))
	computed := mac.Sum(nil)

	received, err := hex.DecodeString(receivedHash)
	if err != nil || !hmac.Equal(computed, received) {
		return Result{}, ErrBadSignature
	}

	res := Result{}

	// auth_date is optional: Telegram always sends it, but an absent or
	// unparsable value skips the freshness check rather than failing.
	if rawDate, ok := pairs["auth_date"]; ok {
		if unix, err := strconv.ParseInt(rawDate, 10, 64); err == nil {
			res.AuthDate = time.Unix(unix, 0)
			if v.maxAge > 0 && now.Sub(res.AuthDate) > v.maxAge {
				return Result{}, ErrExpired
			}
		}
	}

	userID, err := extractUserID(pairs)
	if err != nil {
		return Result{}, err
	}
	res.UserID = userID

	return res, nil
}

// parsePairs splits a query-string payload into key/value pairs the way
// Telegram clients produce it: blank values are kept, pairs that fail
// percent-decoding are skipped, and a duplicated key keeps its last value.
func parsePairs(raw string) map[string]string {
	pairs := make(map[string]string)

	for _, field := range strings.Split(raw, "&") {
		if field == "" {
			continue
		}

		key, value, _ := strings.Cut(field, "=")

		key, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			continue
		}

		pairs[key] = value
	}

	return pairs
}

// checkString builds the canonical data-check string: keys sorted bytewise,
// joined as key=value lines with no trailing newline.
func checkString(pairs map[string]string) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(pairs[k])
	}
	return b.String()
}

// extractUserID reads the numeric id from the serialized user object, falling
// back to a flat user_id field for older payload shapes.
func extractUserID(pairs map[string]string) (int64, error) {
	if rawUser, ok := pairs["user"]; ok {
		var user struct {
			ID *int64 `json:"id"`
		}
		if err := json.Unmarshal([]byte(rawUser), &user); err == nil && user.ID != nil {
			return *user.ID, nil
		}
	}

	if rawID, ok := pairs["user_id"]; ok {
		if id, err := strconv.ParseInt(rawID, 10, 64); err == nil {
			return id, nil
		}
	}

	return 0, ErrNoIdentity
}
