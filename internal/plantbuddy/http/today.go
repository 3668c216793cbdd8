package http

import (
	"net/http"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/domain"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/service"
	"github.com/plantbuddy/plantbuddy/pkg/api"
	"github.com/plantbuddy/plantbuddy/pkg/httpx"
	"github.com/plantbuddy/plantbuddy/pkg/slogx"
)

// TodayHandler serves GET /api/v1/today, the due-state report for the
// caller's plants ordered most urgent first.
type TodayHandler struct {
	Schedule *service.ScheduleService
}

func (h *TodayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	ident, ok := identityFromRequest(r)
	if !ok {
		api.ErrUnauthorized.WriteError(w)
		return
	}

	statuses, err := h.Schedule.ComputeStatuses(ctx, ident, time.Now())
	if err != nil {
		log.Error("compute statuses failed", "err", err)
		api.ErrServerError.WriteError(w)
		return
	}

	out := make([]api.PlantStatus, 0, len(statuses))
	for _, ps := range statuses {
		out = append(out, toAPIStatus(ps))
	}
	httpx.WriteJSON(w, http.StatusOK, api.TodayResponse{Plants: out})
}

func toAPIStatus(ps domain.PlantStatus) api.PlantStatus {
	return api.PlantStatus{
		PlantID:        ps.PlantID,
		Name:           ps.Name,
		Status:         string(ps.Status),
		WaterEveryDays: ps.WaterEveryDays,
		LastWateredAt:  ps.LastWateredAt,
		DaysSinceLast:  ps.DaysSinceLast,
		DueInDays:      ps.DueInDays,
		OverdueDays:    ps.OverdueDays,
	}
}
