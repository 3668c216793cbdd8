package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/auth"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/service"
	"github.com/plantbuddy/plantbuddy/pkg/api"
	"github.com/plantbuddy/plantbuddy/pkg/httpx"
	"github.com/plantbuddy/plantbuddy/pkg/initdata"
	"github.com/plantbuddy/plantbuddy/pkg/slogx"
)

// SessionHandler serves POST /api/v1/session. It exchanges freshly verified
// init data for a short-lived bearer token so the mini-app does not resend
// the raw init data on every call.
type SessionHandler struct {
	Verifier *initdata.Verifier
	Sessions *service.SessionService
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrInvalidJSONBody.WriteError(w)
		return
	}

	res, err := h.Verifier.Verify(req.InitData, time.Now())
	if err != nil {
		log.Warn("init data verify failed", "err", err)
		initDataError(err).WriteError(w)
		return
	}

	token, err := h.Sessions.Issue(auth.FromInitData(res), time.Now())
	if err != nil {
		log.Error("session issue failed", "err", err)
		api.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, api.SessionResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.Sessions.TTL / time.Second),
	})
}
