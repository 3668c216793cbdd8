package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/auth"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/domain"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store"
	"github.com/plantbuddy/plantbuddy/pkg/idx"
	"github.com/plantbuddy/plantbuddy/pkg/slogx"
)

// NeverWateredPolicy selects how a plant with a configured interval but no
// watering history is reported. The source data is ambiguous on its own, so
// the choice belongs to deployment configuration, not the engine.
type NeverWateredPolicy string

const (
	// PolicyUnknown reports never-watered plants as unknown (default).
	PolicyUnknown NeverWateredPolicy = "unknown"

	// PolicyDueNow reports never-watered plants with an interval as due
	// immediately.
	PolicyDueNow NeverWateredPolicy = "due"
)

// ParseNeverWateredPolicy maps a config string to a policy, defaulting to
// PolicyUnknown for anything unrecognised.
func ParseNeverWateredPolicy(s string) NeverWateredPolicy {
	if strings.EqualFold(s, string(PolicyDueNow)) {
		return PolicyDueNow
	}
	return PolicyUnknown
}

// ScheduleService is the due-state engine: it classifies a user's plants
// against the local calendar and applies bulk "watered now" updates. It holds
// no state of its own; all date math happens in the configured Location.
type ScheduleService struct {
	Store    store.Store
	Location *time.Location
	Policy   NeverWateredPolicy
}

// ComputeStatuses classifies every active plant owned by the identity as of
// the local calendar day containing now. The result is ordered for direct
// display: overdue first (most overdue on top), then due today, then plants
// needing configuration, then ok; ties inside a group sort by name
// case-insensitively.
func (s *ScheduleService) ComputeStatuses(ctx context.Context, ident auth.Identity, now time.Time) ([]domain.PlantStatus, error) {
	plants, err := s.Store.Plants().ListActivePlants(ctx, ident.UserID())
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}

	today := localDate(now, s.location())

	statuses := make([]domain.PlantStatus, 0, len(plants))
	for _, p := range plants {
		statuses = append(statuses, s.classify(p, today))
	}

	slices.SortStableFunc(statuses, compareStatuses)
	return statuses, nil
}

// MarkResult reports the outcome of a bulk watering update.
type MarkResult struct {
	// Updated counts plants whose timestamp actually advanced. Unowned,
	// archived and already-newer plants are excluded.
	Updated int

	// FailedIDs lists plants skipped because of a storage failure. These are
	// distinct from silently skipped unowned ids.
	FailedIDs []int64
}

// MarkWatered sets last-watered to `when` for each owned active plant in
// plantIDs and appends a log entry, atomically per plant. Unowned ids are
// skipped without error so callers cannot probe other users' plants. A
// storage failure on one plant is recorded and does not abort the rest; the
// joined error mirrors MarkResult.FailedIDs and never reflects skips.
func (s *ScheduleService) MarkWatered(ctx context.Context, ident auth.Identity, plantIDs []int64, when time.Time) (MarkResult, error) {
	log := slogx.FromContext(ctx)

	var (
		res      MarkResult
		failures []error
	)

	seen := make(map[int64]struct{}, len(plantIDs))
	for _, plantID := range plantIDs {
		if _, dup := seen[plantID]; dup {
			continue
		}
		seen[plantID] = struct{}{}

		var updated bool
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			var err error
			updated, err = tx.Plants().UpdateLastWatered(ctx, ident.UserID(), plantID, when)
			if err != nil || !updated {
				return err
			}

			return tx.WaterLogs().Append(ctx, domain.WaterLogEntry{
				ID:        idx.New(),
				UserID:    ident.UserID(),
				PlantID:   plantID,
				WateredAt: when,
			})
		})

		switch {
		case errors.Is(err, store.ErrNotFound):
			// Not owned or not active: silently skipped.
		case err != nil:
			log.Warn("mark watered failed for plant", "plant_id", plantID, "error", err)
			res.FailedIDs = append(res.FailedIDs, plantID)
			failures = append(failures, fmt.Errorf("plant %d: %w", plantID, err))
		case updated:
			res.Updated++
		}
	}

	return res, errors.Join(failures...)
}

func (s *ScheduleService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

// classify computes the due status of one plant for the given local day.
// Pure: the same (interval, last-watered, today) triple always yields the
// same status.
func (s *ScheduleService) classify(p domain.Plant, today time.Time) domain.PlantStatus {
	ps := domain.PlantStatus{
		PlantID:        p.ID,
		Name:           p.Name,
		Status:         domain.StatusUnknown,
		WaterEveryDays: p.WaterEveryDays,
		LastWateredAt:  p.LastWateredAt,
	}

	if p.LastWateredAt != nil {
		since := daysBetween(today, localDate(*p.LastWateredAt, s.location()))
		ps.DaysSinceLast = &since
	}

	if p.WaterEveryDays == nil {
		// No interval means no schedule, watered or not.
		return ps
	}

	if p.LastWateredAt == nil {
		if s.Policy == PolicyDueNow {
			ps.Status = domain.StatusDue
		}
		return ps
	}

	dueDate := localDate(*p.LastWateredAt, s.location()).AddDate(0, 0, *p.WaterEveryDays)
	switch diff := daysBetween(dueDate, today); {
	case diff < 0:
		overdue := -diff
		ps.Status = domain.StatusOverdue
		ps.OverdueDays = &overdue
	case diff == 0:
		ps.Status = domain.StatusDue
	default:
		ps.Status = domain.StatusOK
		ps.DueInDays = &diff
	}

	return ps
}

// statusRank orders the display groups.
func statusRank(s domain.DueStatus) int {
	switch s {
	case domain.StatusOverdue:
		return 0
	case domain.StatusDue:
		return 1
	case domain.StatusUnknown:
		return 2
	default:
		return 3
	}
}

func compareStatuses(a, b domain.PlantStatus) int {
	if ra, rb := statusRank(a.Status), statusRank(b.Status); ra != rb {
		return ra - rb
	}

	// Most-overdue first inside the overdue group.
	if a.Status == domain.StatusOverdue && a.OverdueDays != nil && b.OverdueDays != nil {
		if *a.OverdueDays != *b.OverdueDays {
			return *b.OverdueDays - *a.OverdueDays
		}
	}

	return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}

// localDate normalises an instant to its calendar date in loc, represented as
// a UTC midnight so day arithmetic is immune to DST transitions.
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns a-b in whole days; both must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(a.Sub(b) / (24 * time.Hour))
}
