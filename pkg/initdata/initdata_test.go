package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testToken = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

// sign computes a valid payload signature the way Telegram does, independently
// of the implementation under test.
func sign(botToken string, pairs map[string]string) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+pairs[k])
	}

	first := hmac.New(sha256.New, []byte("WebAppData"))
	first.Write([]byte(botToken))

	mac := hmac.New(sha256.New, first.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

// encode renders pairs as a query string in map iteration order, so repeated
// encodings of the same map may differ in field order.
func encode(pairs map[string]string) string {
	fields := make([]string, 0, len(pairs))
	for k, v := range pairs {
		fields = append(fields, url.QueryEscape(k)+"="+url.QueryEscape(v))
	}
	return strings.Join(fields, "&")
}

func signedPayload(botToken string, pairs map[string]string) string {
	signed := make(map[string]string, len(pairs)+1)
	for k, v := range pairs {
		signed[k] = v
	}
	signed["hash"] = sign(botToken, pairs)
	return encode(signed)
}

func TestVerifyValidPayload(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	payload := signedPayload(testToken, map[string]string{
		"auth_date": fmt.Sprint(now.Unix()),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      `{"id":279058397,"first_name":"Kira","username":"kira"}`,
	})

	v := NewVerifier(testToken, 10*time.Minute)
	res, err := v.Verify(payload, now)
	require.NoError(t, err)
	require.Equal(t, int64(279058397), res.UserID)
	require.Equal(t, now.Unix(), res.AuthDate.Unix())
}

func TestVerifyKnownVector(t *testing.T) {
	t.Parallel()

	// End-to-end fixture with a trivial credential.
	now := time.Unix(1_700_000_000, 0)
	payload := signedPayload("abc", map[string]string{
		"auth_date": fmt.Sprint(now.Unix()),
		"user":      `{"id":42}`,
		"foo":       "bar",
	})

	res, err := NewVerifier("abc", 10*time.Minute).Verify(payload, now)
	require.NoError(t, err)
	require.Equal(t, int64(42), res.UserID)
}

func TestVerifyMissingPayload(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier(testToken, time.Minute).Verify("", time.Now())
	require.ErrorIs(t, err, ErrMissingPayload)
}

func TestVerifyMissingHash(t *testing.T) {
	t.Parallel()

	v := NewVerifier(testToken, time.Minute)

	_, err := v.Verify("auth_date=100&user=%7B%22id%22%3A1%7D", time.Now())
	require.ErrorIs(t, err, ErrMissingHash)

	// A blank hash value counts as missing, not as a mismatch.
	_, err = v.Verify("auth_date=100&hash=", time.Now())
	require.ErrorIs(t, err, ErrMissingHash)
}

func TestVerifyTamperedValue(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	pairs := map[string]string{
		"auth_date": fmt.Sprint(now.Unix()),
		"user":      `{"id":7}`,
		"foo":       "bar",
	}
	payload := signedPayload(testToken, pairs)

	v := NewVerifier(testToken, 10*time.Minute)

	// Sanity: untouched payload verifies.
	_, err := v.Verify(payload, now)
	require.NoError(t, err)

	// Flipping a single character of any non-hash value breaks the signature.
	tampered := strings.Replace(payload, "foo=bar", "foo=baz", 1)
	require.NotEqual(t, payload, tampered)
	_, err = v.Verify(tampered, now)
	require.ErrorIs(t, err, ErrBadSignature)

	// Non-hex hash is a signature failure too.
	_, err = v.Verify("foo=bar&hash=zzzz", now)
	require.ErrorIs(t, err, ErrBadSignature)

	// Signature from a different credential is rejected.
	other := signedPayload("other-token", pairs)
	_, err = v.Verify(other, now)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyOrderIndependence(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	hash := sign(testToken, map[string]string{
		"auth_date": fmt.Sprint(now.Unix()),
		"user":      `{"id":9}`,
		"foo":       "bar",
	})

	userEnc := url.QueryEscape(`{"id":9}`)
	forward := fmt.Sprintf("auth_date=%d&foo=bar&user=%s&hash=%s", now.Unix(), userEnc, hash)
	backward := fmt.Sprintf("hash=%s&user=%s&foo=bar&auth_date=%d", hash, userEnc, now.Unix())

	v := NewVerifier(testToken, 10*time.Minute)

	res, err := v.Verify(forward, now)
	require.NoError(t, err)
	require.Equal(t, int64(9), res.UserID)

	res, err = v.Verify(backward, now)
	require.NoError(t, err)
	require.Equal(t, int64(9), res.UserID)
}

func TestVerifyFreshnessWindow(t *testing.T) {
	t.Parallel()

	const maxAge = 5 * time.Minute
	now := time.Unix(1_700_000_000, 0)
	v := NewVerifier(testToken, maxAge)

	payloadAgedBy := func(age time.Duration) string {
		return signedPayload(testToken, map[string]string{
			"auth_date": fmt.Sprint(now.Add(-age).Unix()),
			"user":      `{"id":1}`,
		})
	}

	// Exactly maxAge old is still acceptable.
	_, err := v.Verify(payloadAgedBy(maxAge), now)
	require.NoError(t, err)

	// One second beyond the window is stale.
	_, err = v.Verify(payloadAgedBy(maxAge+time.Second), now)
	require.ErrorIs(t, err, ErrExpired)

	// Absent auth_date skips the freshness check entirely.
	_, err = v.Verify(signedPayload(testToken, map[string]string{"user": `{"id":1}`}), now)
	require.NoError(t, err)

	// So does an unparsable one.
	_, err = v.Verify(signedPayload(testToken, map[string]string{
		"auth_date": "not-a-number",
		"user":      `{"id":1}`,
	}), now)
	require.NoError(t, err)

	// maxAge <= 0 disables the window.
	relaxed := NewVerifier(testToken, 0)
	_, err = relaxed.Verify(payloadAgedBy(240*time.Hour), now)
	require.NoError(t, err)
}

func TestVerifyIdentityExtraction(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	v := NewVerifier(testToken, 0)

	t.Run("flat user_id fallback", func(t *testing.T) {
		res, err := v.Verify(signedPayload(testToken, map[string]string{"user_id": "555"}), now)
		require.NoError(t, err)
		require.Equal(t, int64(555), res.UserID)
	})

	t.Run("user object wins over user_id", func(t *testing.T) {
		res, err := v.Verify(signedPayload(testToken, map[string]string{
			"user":    `{"id":111}`,
			"user_id": "222",
		}), now)
		require.NoError(t, err)
		require.Equal(t, int64(111), res.UserID)
	})

	t.Run("malformed user falls back to user_id", func(t *testing.T) {
		res, err := v.Verify(signedPayload(testToken, map[string]string{
			"user":    `not-json`,
			"user_id": "333",
		}), now)
		require.NoError(t, err)
		require.Equal(t, int64(333), res.UserID)
	})

	t.Run("no identity at all", func(t *testing.T) {
		_, err := v.Verify(signedPayload(testToken, map[string]string{"foo": "bar"}), now)
		require.ErrorIs(t, err, ErrNoIdentity)
	})

	t.Run("user object without id", func(t *testing.T) {
		_, err := v.Verify(signedPayload(testToken, map[string]string{
			"user": `{"first_name":"Kira"}`,
		}), now)
		require.ErrorIs(t, err, ErrNoIdentity)
	})
}

func TestParsePairsLeniency(t *testing.T) {
	t.Parallel()

	t.Run("blank values kept", func(t *testing.T) {
		pairs := parsePairs("a=&b")
		require.Equal(t, map[string]string{"a": "", "b": ""}, pairs)
	})

	t.Run("bad escapes skipped", func(t *testing.T) {
		pairs := parsePairs("good=1&bad=%zz&also=2")
		require.Equal(t, map[string]string{"good": "1", "also": "2"}, pairs)
	})

	t.Run("duplicate key keeps last value", func(t *testing.T) {
		pairs := parsePairs("k=first&k=second")
		require.Equal(t, map[string]string{"k": "second"}, pairs)
	})
}

func TestCheckStringShape(t *testing.T) {
	t.Parallel()

	s := checkString(map[string]string{
		"user":      "u",
		"auth_date": "1",
		"query_id":  "q",
	})
	require.Equal(t, "auth_date=1\nquery_id=q\nuser=u", s)

	require.Empty(t, checkString(nil))
	require.False(t, strings.HasSuffix(checkString(map[string]string{"a": "1", "b": "2"}), "\n"))
}
