package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/domain"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store"
	"github.com/plantbuddy/plantbuddy/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.ApplyMigrations())
}

func TestPlantsRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("create and fetch round trip", func(t *testing.T) {
		st := newStore(t)

		p, err := st.Plants().CreatePlant(ctx, 1, "Monstera")
		require.NoError(t, err)
		require.NotZero(t, p.ID)
		require.True(t, p.Active)
		require.Nil(t, p.WaterEveryDays)
		require.Nil(t, p.LastWateredAt)

		got, err := st.Plants().GetActivePlant(ctx, 1, p.ID)
		require.NoError(t, err)
		require.Equal(t, p.ID, got.ID)
		require.Equal(t, "Monstera", got.Name)
	})

	t.Run("names are unique per owner only", func(t *testing.T) {
		st := newStore(t)

		_, err := st.Plants().CreatePlant(ctx, 1, "Fern")
		require.NoError(t, err)

		_, err = st.Plants().CreatePlant(ctx, 1, "Fern")
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		_, err = st.Plants().CreatePlant(ctx, 2, "Fern")
		require.NoError(t, err)
	})

	t.Run("ownership mismatch is indistinguishable from absence", func(t *testing.T) {
		st := newStore(t)

		p, err := st.Plants().CreatePlant(ctx, 1, "Palm")
		require.NoError(t, err)

		_, err = st.Plants().GetActivePlant(ctx, 2, p.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		err = st.Plants().RenamePlant(ctx, 2, p.ID, "Hijacked")
		require.ErrorIs(t, err, store.ErrNotFound)

		err = st.Plants().SetWaterInterval(ctx, 2, p.ID, intPtr(5))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("interval can be set and cleared", func(t *testing.T) {
		st := newStore(t)

		p, err := st.Plants().CreatePlant(ctx, 1, "Ivy")
		require.NoError(t, err)

		require.NoError(t, st.Plants().SetWaterInterval(ctx, 1, p.ID, intPtr(7)))
		got, err := st.Plants().GetActivePlant(ctx, 1, p.ID)
		require.NoError(t, err)
		require.Equal(t, 7, *got.WaterEveryDays)

		require.NoError(t, st.Plants().SetWaterInterval(ctx, 1, p.ID, nil))
		got, err = st.Plants().GetActivePlant(ctx, 1, p.ID)
		require.NoError(t, err)
		require.Nil(t, got.WaterEveryDays)
	})

	t.Run("last watered moves forward only", func(t *testing.T) {
		st := newStore(t)

		p, err := st.Plants().CreatePlant(ctx, 1, "Basil")
		require.NoError(t, err)

		first := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		updated, err := st.Plants().UpdateLastWatered(ctx, 1, p.ID, first)
		require.NoError(t, err)
		require.True(t, updated)

		// Stale timestamp: refused without error.
		updated, err = st.Plants().UpdateLastWatered(ctx, 1, p.ID, first.Add(-time.Hour))
		require.NoError(t, err)
		require.False(t, updated)

		later := first.Add(48 * time.Hour)
		updated, err = st.Plants().UpdateLastWatered(ctx, 1, p.ID, later)
		require.NoError(t, err)
		require.True(t, updated)

		got, err := st.Plants().GetActivePlant(ctx, 1, p.ID)
		require.NoError(t, err)
		require.True(t, got.LastWateredAt.Equal(later))
	})

	t.Run("archive hides from active listing and watering", func(t *testing.T) {
		st := newStore(t)

		p, err := st.Plants().CreatePlant(ctx, 1, "Rose")
		require.NoError(t, err)
		require.NoError(t, st.Plants().SetActive(ctx, 1, p.ID, false))

		active, err := st.Plants().ListActivePlants(ctx, 1)
		require.NoError(t, err)
		require.Empty(t, active)

		archived, err := st.Plants().ListArchivedPlants(ctx, 1)
		require.NoError(t, err)
		require.Len(t, archived, 1)

		_, err = st.Plants().UpdateLastWatered(ctx, 1, p.ID, time.Now())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("lists distinct owners of active plants", func(t *testing.T) {
		st := newStore(t)

		_, err := st.Plants().CreatePlant(ctx, 5, "a")
		require.NoError(t, err)
		_, err = st.Plants().CreatePlant(ctx, 5, "b")
		require.NoError(t, err)
		archivedOnly, err := st.Plants().CreatePlant(ctx, 9, "c")
		require.NoError(t, err)
		require.NoError(t, st.Plants().SetActive(ctx, 9, archivedOnly.ID, false))

		owners, err := st.Plants().ListOwnerIDs(ctx)
		require.NoError(t, err)
		require.Equal(t, []int64{5}, owners)
	})
}

func TestWaterLogsRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	p, err := st.Plants().CreatePlant(ctx, 1, "Monstera")
	require.NoError(t, err)

	base := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	for i := range 3 {
		err := st.WaterLogs().Append(ctx, domain.WaterLogEntry{
			ID:        idx.New(),
			UserID:    1,
			PlantID:   p.ID,
			WateredAt: base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	t.Run("newest first with limit", func(t *testing.T) {
		entries, err := st.WaterLogs().ListRecent(ctx, 1, p.ID, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.True(t, entries[0].WateredAt.After(entries[1].WateredAt))
		require.True(t, entries[0].WateredAt.Equal(base.AddDate(0, 0, 2)))
	})

	t.Run("scoped to owner", func(t *testing.T) {
		entries, err := st.WaterLogs().ListRecent(ctx, 2, p.ID, 10)
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}

func TestRemindersRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	_, err := st.Reminders().GetLastSent(ctx, 1)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.Reminders().SetLastSent(ctx, 1, "2025-06-15"))

	got, err := st.Reminders().GetLastSent(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "2025-06-15", got)

	// Upsert replaces the previous date.
	require.NoError(t, st.Reminders().SetLastSent(ctx, 1, "2025-06-16"))
	got, err = st.Reminders().GetLastSent(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "2025-06-16", got)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Plants().CreatePlant(ctx, 1, "Ghost"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	plants, err := st.Plants().ListActivePlants(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, plants)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	err := st.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Plants().CreatePlant(ctx, 1, "Kept")
		return err
	})
	require.NoError(t, err)

	plants, err := st.Plants().ListActivePlants(ctx, 1)
	require.NoError(t, err)
	require.Len(t, plants, 1)
}

func intPtr(n int) *int { return &n }
