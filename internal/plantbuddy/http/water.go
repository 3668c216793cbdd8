package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/service"
	"github.com/plantbuddy/plantbuddy/pkg/api"
	"github.com/plantbuddy/plantbuddy/pkg/httpx"
	"github.com/plantbuddy/plantbuddy/pkg/slogx"
)

// WaterHandler serves POST /api/v1/water. The batch is best-effort: unknown
// or unowned ids are skipped silently, storage failures on individual plants
// are reported in failed_ids while the rest of the batch still lands.
type WaterHandler struct {
	Schedule *service.ScheduleService
}

func (h *WaterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	ident, ok := identityFromRequest(r)
	if !ok {
		api.ErrUnauthorized.WriteError(w)
		return
	}

	var req api.WaterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrInvalidJSONBody.WriteError(w)
		return
	}

	res, err := h.Schedule.MarkWatered(ctx, ident, req.PlantIDs, time.Now())
	if err != nil {
		// Per-plant failures are already reflected in FailedIDs; the batch
		// result is still a success at the HTTP level.
		log.Warn("mark watered had failures", "failed_ids", res.FailedIDs, "err", err)
	}

	httpx.WriteJSON(w, http.StatusOK, api.WaterResponse{
		Updated:   res.Updated,
		FailedIDs: res.FailedIDs,
	})
}
