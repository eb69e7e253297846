package handlers

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
)

func (b *Bot) cmdStart(ctx context.Context, ev Event) {
	name := ev.FirstName
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf(
		"Hi %s! I am your nutrition assistant.\n\n"+
			"I can track your meals, water, weight and workouts, "+
			"build shopping lists, remind you to eat and drink, "+
			"and suggest recipes.\n\n"+
			"Let's start with your profile so I can compute your daily goals.",
		name,
	)
	b.send(ev.ChatID, text, mainKeyboard())

	user, err := b.users.ByTelegramID(ev.UserID)
	if err != nil {
		b.log.WithError(err).Error("load user on /start")
		return
	}
	if user == nil || !user.ProfileComplete() {
		b.startProfile(ctx, ev)
	}
}

func (b *Bot) cmdHelp(ev Event) {
	text := "What I can do:\n\n" +
		menuProfile + " - set up weight, height, age, activity and goal\n" +
		menuFood + " - log meals by text, photo, voice or barcode\n" +
		menuWater + " - log water and see weekly stats\n" +
		menuWeight + " - log weight, goals are recomputed\n" +
		menuActivity + " - log workouts manually or from a GPX file\n" +
		menuProgress + " - today's calorie balance and totals\n" +
		menuShopping + " - shared shopping lists\n" +
		menuReminders + " - meal, water and custom reminders\n" +
		menuRecipes + " - recipe ideas from your ingredients\n\n" +
		"/cancel drops the current dialogue without saving anything."
	b.send(ev.ChatID, text, mainKeyboard())
}

// requireUser loads a user with a complete profile or tells them to set one
// up. Every logging flow starts with this gate.
func (b *Bot) requireUser(ev Event) *models.User {
	user, err := b.users.ByTelegramID(ev.UserID)
	if err != nil {
		b.log.WithError(err).WithField("user_id", ev.UserID).Error("load user")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return nil
	}
	if user == nil || !user.ProfileComplete() {
		b.send(ev.ChatID, msgNeedProfile, mainKeyboard())
		return nil
	}
	return user
}

func (b *Bot) showProgress(ctx context.Context, ev Event) {
	user := b.requireUser(ev)
	if user == nil {
		return
	}

	consumed, err := b.meals.TodayConsumed(user.ID)
	if err != nil {
		b.log.WithError(err).Error("today consumed")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	burned, err := b.activity.TodayBurned(user.ID)
	if err != nil {
		b.log.WithError(err).Error("today burned")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	waterToday, err := b.water.TodayTotal(user.ID)
	if err != nil {
		b.log.WithError(err).Error("today water")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}

	balance := services.CalorieBalance(consumed, burned, user.DailyCalorieGoal)

	var sb strings.Builder
	sb.WriteString("📊 <b>Today</b>\n\n")
	fmt.Fprintf(&sb, "Eaten: %.0f kcal\nBurned: %.0f kcal\nGoal: %.0f kcal\n\n", consumed, burned, user.DailyCalorieGoal)
	switch balance.Status {
	case services.BalanceDeficit:
		fmt.Fprintf(&sb, "🟢 %.0f kcal left for today.\n", balance.Remaining)
	case services.BalanceOver:
		fmt.Fprintf(&sb, "🔴 %.0f kcal over your goal.\n", -balance.Remaining)
	default:
		sb.WriteString("🎯 Right on target.\n")
	}
	fmt.Fprintf(&sb, "\n💧 Water: %.0f / %.0f ml\n%s\n", waterToday, user.DailyWaterGoal, bar(waterToday, user.DailyWaterGoal, 10))

	if weights, err := b.users.RecentWeights(user.ID, 2); err == nil && len(weights) > 0 {
		fmt.Fprintf(&sb, "\n⚖️ Weight: %.1f kg", weights[0].Weight)
		if len(weights) > 1 {
			fmt.Fprintf(&sb, " (%+.1f since last entry)", weights[0].Weight-weights[1].Weight)
		}
		sb.WriteString("\n")
	}

	if summary, err := b.activity.TodaySummary(user.ID); err == nil && summary != nil {
		fmt.Fprintf(&sb, "\n🏃 Activity: %d min, %.1f km, %.0f kcal\n",
			summary.Duration, summary.Distance, summary.Calories)
	}

	b.send(ev.ChatID, sb.String(), mainKeyboard())
}

// percentOf reports progress toward a goal as a whole percentage.
func percentOf(value, goal float64) int {
	if goal <= 0 {
		return 0
	}
	return int(math.Round(value / goal * 100))
}

// bar renders a filled/empty progress bar, clamped at full.
func bar(value, max float64, width int) string {
	if max <= 0 {
		return strings.Repeat("░", width)
	}
	filled := int(value / max * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
