package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/auth"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/service"
	"github.com/plantbuddy/plantbuddy/pkg/api"
	"github.com/plantbuddy/plantbuddy/pkg/httpx"
	"github.com/plantbuddy/plantbuddy/pkg/initdata"
	"github.com/plantbuddy/plantbuddy/pkg/slogx"
)

// initDataHeader carries the raw Telegram WebApp init data string when the
// mini-app authenticates a request directly instead of using a session token.
const initDataHeader = "X-Telegram-Init-Data"

// AuthMiddleware authenticates API requests. Two credentials are accepted:
// the X-Telegram-Init-Data header, verified cryptographically on every
// request, or a bearer session token issued by the session endpoint. On
// success the caller identity is placed in the request context.
func AuthMiddleware(verifier *initdata.Verifier, sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			if raw := r.Header.Get(initDataHeader); raw != "" {
				res, err := verifier.Verify(raw, time.Now())
				if err != nil {
					log.Warn("init data verify failed", "err", err)
					initDataError(err).WriteError(w)
					return
				}
				serveAs(next, w, r, auth.FromInitData(res))
				return
			}

			if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
				token := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
				ident, err := sessions.Verify(token, time.Now())
				if err != nil {
					log.Warn("session verify failed", "err", err)
					api.ErrInvalidSessionToken.WriteError(w)
					return
				}
				serveAs(next, w, r, ident)
				return
			}

			api.ErrUnauthorized.WriteError(w)
		})
	}
}

func serveAs(next http.Handler, w http.ResponseWriter, r *http.Request, ident auth.Identity) {
	ctx := auth.WithIdentity(r.Context(), ident)
	ctx = context.WithValue(ctx, httpx.CtxKeyUserID, strconv.FormatInt(ident.UserID(), 10))
	next.ServeHTTP(w, r.WithContext(ctx))
}

// initDataError maps a verification failure onto a wire error without leaking
// which check failed beyond its broad category.
func initDataError(err error) *api.Error {
	switch {
	case errors.Is(err, initdata.ErrMissingPayload),
		errors.Is(err, initdata.ErrMissingHash):
		return api.ErrMissingInitData
	case errors.Is(err, initdata.ErrExpired):
		return api.ErrExpiredInitData
	default:
		return api.ErrInvalidInitData
	}
}

// identityFromRequest pulls the authenticated identity out of the request
// context. Handlers behind AuthMiddleware can rely on it being present.
func identityFromRequest(r *http.Request) (auth.Identity, bool) {
	return auth.IdentityFromContext(r.Context())
}
