package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/auth"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/domain"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/service"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store"
	"github.com/plantbuddy/plantbuddy/pkg/api"
	"github.com/plantbuddy/plantbuddy/pkg/httpx"
	"github.com/plantbuddy/plantbuddy/pkg/slogx"
)

const waterLogPageSize = 50

// PlantsHandler covers the plant CRUD surface of the API.
type PlantsHandler struct {
	Plants *service.PlantService
}

// HandleList serves GET /api/v1/plants. Pass ?archived=1 to list archived
// plants instead of active ones.
func (h *PlantsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromRequest(r)
	if !ok {
		api.ErrUnauthorized.WriteError(w)
		return
	}

	var (
		plants []domain.Plant
		err    error
	)
	if r.URL.Query().Get("archived") == "1" {
		plants, err = h.Plants.ListArchivedPlants(r.Context(), ident)
	} else {
		plants, err = h.Plants.ListPlants(r.Context(), ident)
	}
	if err != nil {
		h.serverError(w, r, "list plants", err)
		return
	}

	out := make([]api.Plant, 0, len(plants))
	for _, p := range plants {
		out = append(out, toAPIPlant(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCreate serves POST /api/v1/plants.
func (h *PlantsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromRequest(r)
	if !ok {
		api.ErrUnauthorized.WriteError(w)
		return
	}

	var req api.CreatePlantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrInvalidJSONBody.WriteError(w)
		return
	}

	plant, err := h.Plants.AddPlant(r.Context(), ident, req.Name, req.WaterEveryDays)
	if err != nil {
		h.writeServiceError(w, r, "create plant", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAPIPlant(plant))
}

// HandleUpdate serves PATCH /api/v1/plants/{id}. Rename and schedule changes
// are applied independently; omitted fields are left alone.
func (h *PlantsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ident, id, ok := h.plantRequest(w, r)
	if !ok {
		return
	}

	var req api.UpdatePlantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrInvalidJSONBody.WriteError(w)
		return
	}

	if req.Name != nil {
		if err := h.Plants.RenamePlant(r.Context(), ident, id, *req.Name); err != nil {
			h.writeServiceError(w, r, "rename plant", err)
			return
		}
	}
	if req.WaterEveryDays != nil || req.ClearInterval {
		days := req.WaterEveryDays
		if req.ClearInterval {
			days = nil
		}
		if err := h.Plants.SetWaterInterval(r.Context(), ident, id, days); err != nil {
			h.writeServiceError(w, r, "set water interval", err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleArchive serves POST /api/v1/plants/{id}/archive.
func (h *PlantsHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	ident, id, ok := h.plantRequest(w, r)
	if !ok {
		return
	}
	if err := h.Plants.ArchivePlant(r.Context(), ident, id); err != nil {
		h.writeServiceError(w, r, "archive plant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRestore serves POST /api/v1/plants/{id}/restore.
func (h *PlantsHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	ident, id, ok := h.plantRequest(w, r)
	if !ok {
		return
	}
	if err := h.Plants.RestorePlant(r.Context(), ident, id); err != nil {
		h.writeServiceError(w, r, "restore plant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLog serves GET /api/v1/plants/{id}/log, the most recent watering
// events first.
func (h *PlantsHandler) HandleLog(w http.ResponseWriter, r *http.Request) {
	ident, id, ok := h.plantRequest(w, r)
	if !ok {
		return
	}

	entries, err := h.Plants.WaterLog(r.Context(), ident, id, waterLogPageSize)
	if err != nil {
		h.writeServiceError(w, r, "list water log", err)
		return
	}

	out := make([]api.WaterLogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, api.WaterLogEntry{
			ID:        e.ID.String(),
			PlantID:   e.PlantID,
			WateredAt: e.WateredAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *PlantsHandler) plantRequest(w http.ResponseWriter, r *http.Request) (auth.Identity, int64, bool) {
	ident, ok := identityFromRequest(r)
	if !ok {
		api.ErrUnauthorized.WriteError(w)
		return auth.Identity{}, 0, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		api.ErrInvalidRequest.WriteError(w)
		return auth.Identity{}, 0, false
	}
	return ident, id, true
}

func (h *PlantsHandler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidName):
		api.ErrInvalidPlantName.WriteError(w)
	case errors.Is(err, service.ErrInvalidInterval):
		api.ErrInvalidInterval.WriteError(w)
	case errors.Is(err, store.ErrNotFound):
		api.ErrPlantNotFound.WriteError(w)
	case errors.Is(err, store.ErrAlreadyExists):
		api.ErrPlantNameTaken.WriteError(w)
	default:
		h.serverError(w, r, op, err)
	}
}

func (h *PlantsHandler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	slogx.FromContext(r.Context()).Error(op+" failed", "err", err)
	api.ErrServerError.WriteError(w)
}

func toAPIPlant(p domain.Plant) api.Plant {
	return api.Plant{
		ID:             p.ID,
		Name:           p.Name,
		WaterEveryDays: p.WaterEveryDays,
		LastWateredAt:  p.LastWateredAt,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
	}
}
