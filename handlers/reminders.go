package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
)

var reminderDefaults = map[string]string{
	"meal":   "Time to eat! 🍽",
	"water":  "Drink some water 💧",
	"weight": "Morning weigh-in ⚖️",
}

var reminderDayChoices = map[string]string{
	"daily":    "daily",
	"weekdays": "mon,tue,wed,thu,fri",
	"weekend":  "sat,sun",
}

func (b *Bot) showReminders(ctx context.Context, ev Event) {
	user := b.requireUser(ev)
	if user == nil {
		return
	}
	reminders, err := b.reminders.EnabledForUser(user.ID)
	if err != nil {
		b.log.WithError(err).Error("load reminders")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}

	var sb strings.Builder
	var rows [][]Button
	if len(reminders) == 0 {
		sb.WriteString("You have no reminders yet.")
	} else {
		sb.WriteString("⏰ <b>Your reminders</b>\n\n")
		for _, r := range reminders {
			fmt.Fprintf(&sb, "%s at %s (%s)\n", r.Title, r.Time, r.Days)
			rows = append(rows, []Button{{
				Label:  fmt.Sprintf("🗑 %s %s", r.Time, r.Title),
				Action: fmt.Sprintf("rem:off:%d", r.ID),
			}})
		}
	}
	rows = append(rows, []Button{{Label: "➕ New reminder", Action: "rem:new"}})

	if ev.CallbackID != "" {
		b.edit(ev.ChatID, ev.MessageID, sb.String(), &Keyboard{Inline: rows})
	} else {
		b.send(ev.ChatID, sb.String(), &Keyboard{Inline: rows})
	}
}

// reminderCallback handles the list-level buttons, which work from any
// state. The flow-scoped buttons go through reminderFlowCallback.
func (b *Bot) reminderCallback(ctx context.Context, ev Event, sess *Session, arg string) {
	user := b.requireUser(ev)
	if user == nil {
		return
	}
	op, rest := splitAction(arg)
	switch op {
	case "new":
		sess.Clear()
		sess.Step = StepReminderType
		b.edit(ev.ChatID, ev.MessageID, "What should I remind you about?", &Keyboard{Inline: [][]Button{
			{
				{Label: "🍽 Meals", Action: "rem:type:meal"},
				{Label: "💧 Water", Action: "rem:type:water"},
			},
			{
				{Label: "⚖️ Weigh-in", Action: "rem:type:weight"},
				{Label: "📝 Custom", Action: "rem:type:custom"},
			},
		}})
	case "type":
		if sess.Step != StepReminderType {
			return
		}
		if rest != "custom" {
			if _, ok := reminderDefaults[rest]; !ok {
				return
			}
		}
		sess.Set("rem_type", rest)
		if rest == "custom" {
			sess.Step = StepReminderTitle
			b.edit(ev.ChatID, ev.MessageID, "What should the reminder say?", nil)
			return
		}
		sess.Set("rem_title", reminderDefaults[rest])
		sess.Step = StepReminderTime
		b.edit(ev.ChatID, ev.MessageID, "At what time? Send it as HH:MM, for example 09:30.", nil)
	case "off":
		id, err := strconv.Atoi(rest)
		if err != nil {
			return
		}
		if err := b.reminders.Disable(user.ID, uint(id)); err != nil {
			b.log.WithError(err).Warn("disable reminder")
		}
		b.showReminders(ctx, ev)
	}
}

func (b *Bot) reminderText(ev Event, sess *Session) {
	switch sess.Step {
	case StepReminderTitle:
		title := strings.TrimSpace(ev.Text)
		if title == "" {
			b.send(ev.ChatID, "Please send the reminder text.", nil)
			return
		}
		sess.Set("rem_title", title)
		sess.Step = StepReminderTime
		b.send(ev.ChatID, "At what time? Send it as HH:MM, for example 09:30.", nil)

	case StepReminderTime:
		clock, err := parseClock(ev.Text)
		if err != nil {
			b.send(ev.ChatID, "That is not a valid time. Send it as HH:MM, for example 09:30.", nil)
			return
		}
		sess.Set("rem_time", clock)
		sess.Step = StepReminderDays
		b.send(ev.ChatID, "On which days?", &Keyboard{Inline: [][]Button{
			{{Label: "Every day", Action: "day:daily"}},
			{
				{Label: "Weekdays", Action: "day:weekdays"},
				{Label: "Weekends", Action: "day:weekend"},
			},
		}})
	}
}

func (b *Bot) reminderFlowCallback(ctx context.Context, ev Event, sess *Session, verb, arg string) {
	switch sess.Step {
	case StepReminderDays:
		if verb != "day" {
			return
		}
		days, ok := reminderDayChoices[arg]
		if !ok {
			return
		}
		sess.Set("rem_days", days)
		sess.Step = StepReminderConfirm
		b.edit(ev.ChatID, ev.MessageID, fmt.Sprintf(
			"⏰ %s\nTime: %s\nDays: %s\n\nCreate it?",
			sess.String("rem_title"), sess.String("rem_time"), days,
		), &Keyboard{Inline: InlineRow(
			Button{Label: "✅ Create", Action: "confirm"},
			Button{Label: "❌ Cancel", Action: "cancel"},
		)})

	case StepReminderConfirm:
		switch verb {
		case "cancel":
			sess.Clear()
			b.edit(ev.ChatID, ev.MessageID, msgCancelled, nil)
		case "confirm":
			user := b.requireUser(ev)
			if user == nil {
				sess.Clear()
				return
			}
			_, err := b.reminders.Create(user.ID, services.ReminderInput{
				Type:  sess.String("rem_type"),
				Title: sess.String("rem_title"),
				Time:  sess.String("rem_time"),
				Days:  sess.String("rem_days"),
			})
			if err != nil {
				b.log.WithError(err).Error("create reminder")
				b.send(ev.ChatID, msgInternalError, mainKeyboard())
				return
			}
			clock := sess.String("rem_time")
			sess.Clear()
			b.edit(ev.ChatID, ev.MessageID, fmt.Sprintf("✅ Reminder set for %s.", clock), nil)
		}
	}
}
