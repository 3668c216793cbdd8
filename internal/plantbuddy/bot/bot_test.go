package bot

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/auth"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/service"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store/drivers/sqlite"
	"github.com/plantbuddy/plantbuddy/pkg/telegram"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	texts  []string
	params []*telegram.SendMessageParams
}

func (s *fakeSender) SendMessage(_ context.Context, _ int64, text string, params *telegram.SendMessageParams) error {
	s.texts = append(s.texts, text)
	s.params = append(s.params, params)
	return nil
}

func newDispatcher(t *testing.T, now time.Time) (*Dispatcher, *fakeSender, *service.PlantService) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	sender := &fakeSender{}
	plants := &service.PlantService{Store: st}
	d := &Dispatcher{
		Schedule: &service.ScheduleService{Store: st, Location: time.UTC},
		Plants:   plants,
		Sender:   sender,
		Logger:   slog.Default(),
		BaseURL:  "https://plantbuddy.example",
		Now:      func() time.Time { return now },
	}
	return d, sender, plants
}

func messageFrom(userID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			From: &telegram.User{ID: userID, FirstName: "Test"},
			Chat: telegram.Chat{ID: userID, Type: "private"},
			Text: text,
		},
	}
}

func intPtr(n int) *int { return &n }

func TestDispatcherIgnoresNonCommands(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	d, sender, _ := newDispatcher(t, now)

	d.HandleUpdate(ctx, telegram.Update{})
	d.HandleUpdate(ctx, messageFrom(1, "hello there"))
	d.HandleUpdate(ctx, messageFrom(1, "/unknowncommand"))

	// Bots talking to bots is how loops start.
	upd := messageFrom(1, "/today")
	upd.Message.From.IsBot = true
	d.HandleUpdate(ctx, upd)

	require.Empty(t, sender.texts)
}

func TestStartCommand(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	d, sender, _ := newDispatcher(t, now)

	d.HandleUpdate(ctx, messageFrom(1, "/start"))

	require.Len(t, sender.texts, 1)
	require.Contains(t, sender.texts[0], "/today")
	require.NotNil(t, sender.params[0])
	require.NotNil(t, sender.params[0].ReplyMarkup)
}

func TestTodayCommand(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	d, sender, plants := newDispatcher(t, now)
	ident := auth.FromBotUpdate(1)

	t.Run("all clear with no plants", func(t *testing.T) {
		d.HandleUpdate(ctx, messageFrom(1, "/today"))
		require.Contains(t, sender.texts[len(sender.texts)-1], "happy")
	})

	t.Run("groups by urgency", func(t *testing.T) {
		_, err := plants.AddPlant(ctx, ident, "Basil", intPtr(1))
		require.NoError(t, err)
		watered, err := plants.AddPlant(ctx, ident, "Fern", intPtr(7))
		require.NoError(t, err)

		_, err = d.Schedule.MarkWatered(ctx, ident, []int64{watered.ID}, now.AddDate(0, 0, -10))
		require.NoError(t, err)

		d.HandleUpdate(ctx, messageFrom(1, "/today"))

		text := sender.texts[len(sender.texts)-1]
		require.Contains(t, text, "Overdue")
		require.Contains(t, text, "Fern (3 days overdue)")
		require.Contains(t, text, "Needs a schedule or first watering")
	})
}

func TestPlantsCommand(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	d, sender, plants := newDispatcher(t, now)

	d.HandleUpdate(ctx, messageFrom(1, "/plants"))
	require.Contains(t, sender.texts[0], "no plants yet")

	_, err := plants.AddPlant(ctx, auth.FromBotUpdate(1), "Monstera", intPtr(7))
	require.NoError(t, err)

	d.HandleUpdate(ctx, messageFrom(1, "/plants"))
	require.Contains(t, sender.texts[1], "Monstera — every 7 days")
}

func TestWaterCommand(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	t.Run("waters everything due", func(t *testing.T) {
		d, sender, plants := newDispatcher(t, now)
		ident := auth.FromBotUpdate(1)

		a, err := plants.AddPlant(ctx, ident, "Basil", intPtr(1))
		require.NoError(t, err)
		b, err := plants.AddPlant(ctx, ident, "Fern", intPtr(1))
		require.NoError(t, err)

		_, err = d.Schedule.MarkWatered(ctx, ident, []int64{a.ID, b.ID}, now.AddDate(0, 0, -2))
		require.NoError(t, err)

		d.HandleUpdate(ctx, messageFrom(1, "/water"))
		require.Contains(t, sender.texts[len(sender.texts)-1], "marked 2 watered")
	})

	t.Run("nothing due", func(t *testing.T) {
		d, sender, _ := newDispatcher(t, now)

		d.HandleUpdate(ctx, messageFrom(1, "/water"))
		require.Contains(t, sender.texts[0], "Nothing needs water")
	})

	t.Run("waters one plant by name, case-insensitively", func(t *testing.T) {
		d, sender, plants := newDispatcher(t, now)
		ident := auth.FromBotUpdate(1)

		_, err := plants.AddPlant(ctx, ident, "Monstera", intPtr(7))
		require.NoError(t, err)

		d.HandleUpdate(ctx, messageFrom(1, "/water monstera"))
		require.Contains(t, sender.texts[0], "marked 1 watered")
	})

	t.Run("unknown name gets a friendly reply", func(t *testing.T) {
		d, sender, _ := newDispatcher(t, now)

		d.HandleUpdate(ctx, messageFrom(1, "/water bigfoot"))
		require.Contains(t, sender.texts[0], `don't know a plant called "bigfoot"`)
	})
}
