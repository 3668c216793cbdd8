package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/bot"
	"github.com/plantbuddy/plantbuddy/pkg/slogx"
	"github.com/plantbuddy/plantbuddy/pkg/telegram"
)

// secretTokenHeader is set by Telegram on webhook deliveries when a secret
// token was registered with setWebhook.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler serves POST /webhook. It always answers 200 once the secret
// checks out: Telegram retries non-2xx deliveries, and a bad update must not
// wedge the queue.
type WebhookHandler struct {
	Dispatcher *bot.Dispatcher
	Secret     string
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if h.Secret != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
			log.Warn("webhook secret mismatch")
			w.WriteHeader(http.StatusForbidden)
			return
		}
	}

	var upd telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		log.Warn("webhook body decode failed", "err", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	h.Dispatcher.HandleUpdate(ctx, upd)
	w.WriteHeader(http.StatusOK)
}
