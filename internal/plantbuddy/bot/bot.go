// Package bot handles Telegram webhook updates. This channel never sees init
// data: Telegram authenticates the sender upstream, so identities come from
// the trusted adapter after the webhook secret has been checked.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/auth"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/domain"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/service"
	"github.com/plantbuddy/plantbuddy/pkg/telegram"
)

// Sender is the slice of the Telegram client the dispatcher needs.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, params *telegram.SendMessageParams) error
}

// Dispatcher routes bot commands to the engine and replies in chat.
type Dispatcher struct {
	Schedule *service.ScheduleService
	Plants   *service.PlantService
	Sender   Sender
	Logger   *slog.Logger

	// BaseURL, when set, is used to offer the mini-app via an inline button.
	BaseURL string

	// Now is the clock used for status computations; defaults to time.Now.
	Now func() time.Time
}

// HandleUpdate processes one webhook update. Errors are logged and swallowed:
// Telegram retries failed webhook deliveries, and a reply failure must not
// turn into a webhook failure loop.
func (d *Dispatcher) HandleUpdate(ctx context.Context, upd telegram.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}

	ident := auth.FromBotUpdate(msg.From.ID)
	cmd, args := msg.Command()

	var err error
	switch cmd {
	case "/start":
		err = d.handleStart(ctx, msg.Chat.ID)
	case "/today":
		err = d.handleToday(ctx, ident, msg.Chat.ID)
	case "/plants":
		err = d.handlePlants(ctx, ident, msg.Chat.ID)
	case "/water":
		err = d.handleWater(ctx, ident, msg.Chat.ID, args)
	default:
		return
	}

	if err != nil {
		d.Logger.Warn("bot command failed", "command", cmd, "error", err)
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, chatID int64) error {
	text := "I remember when to water your plants 🌿\n\n" +
		"Commands:\n" +
		"/today — what needs attention\n" +
		"/plants — your plants\n" +
		"/water — mark everything due as watered\n" +
		"/water <name> — mark one plant as watered"

	var params *telegram.SendMessageParams
	if d.BaseURL != "" {
		params = &telegram.SendMessageParams{
			ReplyMarkup: telegram.InlineKeyboard([]telegram.InlineButton{
				{Text: "Open PlantBuddy", WebAppURL: d.BaseURL + "/app"},
			}),
		}
	}
	return d.Sender.SendMessage(ctx, chatID, text, params)
}

func (d *Dispatcher) handleToday(ctx context.Context, ident auth.Identity, chatID int64) error {
	statuses, err := d.Schedule.ComputeStatuses(ctx, ident, d.now())
	if err != nil {
		return fmt.Errorf("compute statuses: %w", err)
	}
	return d.Sender.SendMessage(ctx, chatID, renderToday(statuses), nil)
}

func (d *Dispatcher) handlePlants(ctx context.Context, ident auth.Identity, chatID int64) error {
	plants, err := d.Plants.ListPlants(ctx, ident)
	if err != nil {
		return fmt.Errorf("list plants: %w", err)
	}

	if len(plants) == 0 {
		return d.Sender.SendMessage(ctx, chatID, "You have no plants yet. Add some in the app!", nil)
	}

	var b strings.Builder
	b.WriteString("🪴 Your plants:\n")
	for _, p := range plants {
		b.WriteString("• ")
		b.WriteString(p.Name)
		if p.WaterEveryDays != nil {
			fmt.Fprintf(&b, " — every %d days", *p.WaterEveryDays)
		} else {
			b.WriteString(" — no schedule yet")
		}
		b.WriteString("\n")
	}
	return d.Sender.SendMessage(ctx, chatID, b.String(), nil)
}

// handleWater marks plants watered: all due/overdue ones by default, or a
// single plant by name.
func (d *Dispatcher) handleWater(ctx context.Context, ident auth.Identity, chatID int64, args string) error {
	now := d.now()

	var ids []int64
	if name := strings.TrimSpace(args); name != "" {
		plants, err := d.Plants.ListPlants(ctx, ident)
		if err != nil {
			return fmt.Errorf("list plants: %w", err)
		}
		for _, p := range plants {
			if strings.EqualFold(p.Name, name) {
				ids = append(ids, p.ID)
				break
			}
		}
		if len(ids) == 0 {
			return d.Sender.SendMessage(ctx, chatID, fmt.Sprintf("I don't know a plant called %q.", name), nil)
		}
	} else {
		statuses, err := d.Schedule.ComputeStatuses(ctx, ident, now)
		if err != nil {
			return fmt.Errorf("compute statuses: %w", err)
		}
		for _, ps := range statuses {
			if ps.Status == domain.StatusDue || ps.Status == domain.StatusOverdue {
				ids = append(ids, ps.PlantID)
			}
		}
		if len(ids) == 0 {
			return d.Sender.SendMessage(ctx, chatID, "Nothing needs water right now 👍", nil)
		}
	}

	res, err := d.Schedule.MarkWatered(ctx, ident, ids, now)
	if err != nil {
		// Partial failures still produce a useful count; report what happened.
		d.Logger.Warn("mark watered partially failed", "failed_ids", res.FailedIDs, "error", err)
	}

	return d.Sender.SendMessage(ctx, chatID, fmt.Sprintf("Done — marked %d watered 💧", res.Updated), nil)
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func renderToday(statuses []domain.PlantStatus) string {
	var overdue, due, unknown []string
	for _, ps := range statuses {
		switch ps.Status {
		case domain.StatusOverdue:
			days := 0
			if ps.OverdueDays != nil {
				days = *ps.OverdueDays
			}
			overdue = append(overdue, fmt.Sprintf("• %s (%d days overdue)", ps.Name, days))
		case domain.StatusDue:
			due = append(due, "• "+ps.Name)
		case domain.StatusUnknown:
			unknown = append(unknown, "• "+ps.Name)
		}
	}

	if len(overdue) == 0 && len(due) == 0 && len(unknown) == 0 {
		return "All plants are happy today ✨"
	}

	var b strings.Builder
	if len(overdue) > 0 {
		b.WriteString("🔴 Overdue:\n" + strings.Join(overdue, "\n") + "\n\n")
	}
	if len(due) > 0 {
		b.WriteString("💧 Water today:\n" + strings.Join(due, "\n") + "\n\n")
	}
	if len(unknown) > 0 {
		b.WriteString("❔ Needs a schedule or first watering:\n" + strings.Join(unknown, "\n") + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
