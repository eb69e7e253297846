package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
)

func (b *Bot) startWater(ctx context.Context, ev Event) {
	user := b.requireUser(ev)
	if user == nil {
		return
	}
	total, err := b.water.TodayTotal(user.ID)
	if err != nil {
		b.log.WithError(err).Error("today water")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}

	b.sessions.With(ev.UserID, func(sess *Session) {
		sess.Clear()
		sess.Step = StepWaterAmount
	})

	text := fmt.Sprintf("💧 Today: %.0f / %.0f ml (%d%%)\n%s\n\nHow much did you drink? Pick a preset or type the amount in ml.",
		total, user.DailyWaterGoal, percentOf(total, user.DailyWaterGoal), bar(total, user.DailyWaterGoal, 10))
	b.send(ev.ChatID, text, &Keyboard{Inline: [][]Button{
		{
			{Label: "200 ml", Action: "water:200"},
			{Label: "300 ml", Action: "water:300"},
			{Label: "500 ml", Action: "water:500"},
		},
		{{Label: "📈 Week stats", Action: "water:stats"}},
	}})
}

func (b *Bot) waterCallback(ctx context.Context, ev Event, sess *Session, verb, arg string) {
	if verb != "water" {
		return
	}
	if arg == "stats" {
		b.showWaterStats(ev, sess)
		return
	}
	amount, err := strconv.Atoi(arg)
	if err != nil || amount < minWaterMl || amount > maxWaterMl {
		return
	}
	b.commitWater(ev, sess, float64(amount), true)
}

func (b *Bot) waterAmountText(ev Event, sess *Session) {
	amount, err := parseIntInRange(ev.Text, minWaterMl, maxWaterMl)
	if err != nil {
		b.send(ev.ChatID, fmt.Sprintf("Please send an amount between %d and %d ml.", minWaterMl, maxWaterMl), nil)
		return
	}
	b.commitWater(ev, sess, float64(amount), false)
}

func (b *Bot) commitWater(ev Event, sess *Session, amount float64, fromButton bool) {
	user := b.requireUser(ev)
	if user == nil {
		sess.Clear()
		return
	}
	if err := b.water.AddEntry(user.ID, amount); err != nil {
		b.log.WithError(err).WithField("user_id", ev.UserID).Error("save water")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	sess.Clear()

	total, err := b.water.TodayTotal(user.ID)
	if err != nil {
		b.log.WithError(err).Error("today water after save")
		total = amount
	}
	text := fmt.Sprintf("✅ +%.0f ml\n\n💧 Today: %.0f / %.0f ml (%d%%)\n%s",
		amount, total, user.DailyWaterGoal, percentOf(total, user.DailyWaterGoal), bar(total, user.DailyWaterGoal, 10))
	if total >= user.DailyWaterGoal && user.DailyWaterGoal > 0 {
		text += "\n\n🎉 Water goal reached!"
	}
	if fromButton {
		b.edit(ev.ChatID, ev.MessageID, text, nil)
	} else {
		b.send(ev.ChatID, text, mainKeyboard())
	}
}

func (b *Bot) showWaterStats(ev Event, sess *Session) {
	user := b.requireUser(ev)
	if user == nil {
		sess.Clear()
		return
	}
	days, err := b.water.WeekTotals(user.ID)
	if err != nil {
		b.log.WithError(err).Error("week water")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	sess.Clear()

	if len(days) == 0 {
		b.edit(ev.ChatID, ev.MessageID, "No water logged in the last 7 days yet.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("💧 <b>Last 7 days</b>\n\n")
	var sum float64
	for _, d := range days {
		sum += d.Amount
		fmt.Fprintf(&sb, "%s  %s %.0f ml\n",
			d.Day.Format("Mon 02.01"), bar(d.Amount, user.DailyWaterGoal, 8), d.Amount)
	}
	fmt.Fprintf(&sb, "\nAverage: %.0f ml\nDaily goal: %.0f ml",
		sum/float64(len(days)), user.DailyWaterGoal)
	b.edit(ev.ChatID, ev.MessageID, sb.String(), nil)
}

func (b *Bot) startWeight(ctx context.Context, ev Event) {
	user := b.requireUser(ev)
	if user == nil {
		return
	}
	b.sessions.With(ev.UserID, func(sess *Session) {
		sess.Clear()
		sess.Step = StepWeightEntry
	})
	b.send(ev.ChatID, fmt.Sprintf("Current weight on record: %.1f kg.\nWhat is your weight now?", user.Weight), nil)
}

func (b *Bot) weightText(ctx context.Context, ev Event, sess *Session) {
	weight, err := parseFloatInRange(ev.Text, minWeightKg, maxWeightKg)
	if err != nil {
		b.send(ev.ChatID, fmt.Sprintf("Please send a weight between %.0f and %.0f kg.", minWeightKg, maxWeightKg), nil)
		return
	}

	current, err := b.users.ByTelegramID(ev.UserID)
	if err != nil || current == nil {
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	previous := current.Weight
	temperature := b.weather.CurrentTemperature(ctx, current.City)

	user, err := b.users.LogWeight(ev.UserID, weight, temperature)
	if err != nil {
		b.log.WithError(err).WithField("user_id", ev.UserID).Error("save weight")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	sess.Clear()

	text := fmt.Sprintf("✅ Weight saved: %.1f kg", weight)
	if previous > 0 {
		text += fmt.Sprintf(" (%+.1f kg)", weight-previous)
	}
	text += "\n\nYour daily goals were updated:\n" + goalLine(user)
	b.send(ev.ChatID, text, mainKeyboard())
}

func goalLine(u *models.User) string {
	return fmt.Sprintf("Calories: %.0f kcal, water: %.0f ml", u.DailyCalorieGoal, u.DailyWaterGoal)
}
