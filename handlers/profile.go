package handlers

import (
	"context"
	"fmt"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
)

func (b *Bot) startProfile(ctx context.Context, ev Event) {
	user, err := b.users.ByTelegramID(ev.UserID)
	if err != nil {
		b.log.WithError(err).Error("load user for profile")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	if user != nil && user.ProfileComplete() {
		b.send(ev.ChatID, profileSummary(user), &Keyboard{
			Inline: InlineRow(Button{Label: "✏️ Edit profile", Action: "profile:edit"}),
		})
		return
	}
	b.sessions.With(ev.UserID, func(sess *Session) {
		b.beginProfileFlow(ev, sess)
	})
}

func (b *Bot) beginProfileFlow(ev Event, sess *Session) {
	sess.Clear()
	sess.Step = StepProfileWeight
	b.send(ev.ChatID, "What is your weight in kg? (for example: 71.5)", nil)
}

func (b *Bot) profileText(ctx context.Context, ev Event, sess *Session) {
	switch sess.Step {
	case StepProfileWeight:
		v, err := parseFloatInRange(ev.Text, minWeightKg, maxWeightKg)
		if err != nil {
			b.send(ev.ChatID, fmt.Sprintf("Please send a weight between %.0f and %.0f kg.", minWeightKg, maxWeightKg), nil)
			return
		}
		sess.Set("weight", v)
		sess.Step = StepProfileHeight
		b.send(ev.ChatID, "Your height in cm?", nil)

	case StepProfileHeight:
		v, err := parseFloatInRange(ev.Text, minHeightCm, maxHeightCm)
		if err != nil {
			b.send(ev.ChatID, fmt.Sprintf("Please send a height between %.0f and %.0f cm.", minHeightCm, maxHeightCm), nil)
			return
		}
		sess.Set("height", v)
		sess.Step = StepProfileAge
		b.send(ev.ChatID, "Your age?", nil)

	case StepProfileAge:
		v, err := parseIntInRange(ev.Text, minAge, maxAge)
		if err != nil {
			b.send(ev.ChatID, fmt.Sprintf("Please send an age between %d and %d.", minAge, maxAge), nil)
			return
		}
		sess.Set("age", v)
		sess.Step = StepProfileGender
		b.send(ev.ChatID, "Your gender?", &Keyboard{Inline: InlineRow(
			Button{Label: "Male", Action: "gender:male"},
			Button{Label: "Female", Action: "gender:female"},
		)})

	case StepProfileCity:
		city := ev.Text
		sess.Set("city", city)
		b.finishProfile(ctx, ev, sess)
	}
}

func (b *Bot) profileCallback(ctx context.Context, ev Event, sess *Session, verb, arg string) {
	switch {
	case sess.Step == StepProfileGender && verb == "gender" &&
		(arg == services.GenderMale || arg == services.GenderFemale):
		sess.Set("gender", arg)
		sess.Step = StepProfileActivity
		b.edit(ev.ChatID, ev.MessageID, "How active are you?", &Keyboard{Inline: [][]Button{
			{{Label: "🪑 Low (desk job, little exercise)", Action: "active:low"}},
			{{Label: "🚶 Medium (training 2-4x a week)", Action: "active:medium"}},
			{{Label: "🏋️ High (daily training)", Action: "active:high"}},
		}})

	case sess.Step == StepProfileActivity && verb == "active" &&
		(arg == services.ActivityLow || arg == services.ActivityMedium || arg == services.ActivityHigh):
		sess.Set("activity", arg)
		sess.Step = StepProfileGoal
		b.edit(ev.ChatID, ev.MessageID, "What is your goal?", &Keyboard{Inline: [][]Button{
			{{Label: "📉 Lose weight", Action: "goal:lose"}},
			{{Label: "⚖️ Maintain", Action: "goal:maintain"}},
			{{Label: "📈 Gain muscle", Action: "goal:gain"}},
		}})

	case sess.Step == StepProfileGoal && verb == "goal" &&
		(arg == services.GoalLose || arg == services.GoalMaintain || arg == services.GoalGain):
		sess.Set("goal", arg)
		sess.Step = StepProfileCity
		b.edit(ev.ChatID, ev.MessageID,
			"Which city do you live in? I use local weather to adjust your water goal.",
			&Keyboard{Inline: InlineRow(Button{Label: "Skip", Action: "city:skip"})})

	case sess.Step == StepProfileCity && verb == "city" && arg == "skip":
		sess.Set("city", "")
		b.finishProfile(ctx, ev, sess)
	}
}

func (b *Bot) finishProfile(ctx context.Context, ev Event, sess *Session) {
	city := sess.String("city")
	temperature := services.DefaultTemperature
	if city != "" {
		temperature = b.weather.CurrentTemperature(ctx, city)
	}

	user, err := b.users.SaveProfile(services.ProfileInput{
		TelegramID:    ev.UserID,
		Username:      ev.Username,
		FirstName:     ev.FirstName,
		Weight:        sess.Float("weight"),
		Height:        sess.Float("height"),
		Age:           sess.Int("age"),
		Gender:        sess.String("gender"),
		ActivityLevel: sess.String("activity"),
		Goal:          sess.String("goal"),
		City:          city,
		Temperature:   temperature,
	})
	if err != nil {
		b.log.WithError(err).WithField("user_id", ev.UserID).Error("save profile")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	sess.Clear()

	text := "✅ Profile saved!\n\n" + targetsSummary(user)
	b.send(ev.ChatID, text, mainKeyboard())
}

func profileSummary(u *models.User) string {
	return fmt.Sprintf(
		"👤 <b>Your profile</b>\n\n"+
			"Weight: %.1f kg\nHeight: %.0f cm\nAge: %d\n"+
			"Gender: %s\nActivity: %s\nGoal: %s\n\n%s",
		u.Weight, u.Height, u.Age, u.Gender, u.ActivityLevel, u.Goal,
		targetsSummary(u),
	)
}

func targetsSummary(u *models.User) string {
	return fmt.Sprintf(
		"🎯 <b>Daily targets</b>\n"+
			"Calories: %.0f kcal\nProtein: %.0f g\nFat: %.0f g\nCarbs: %.0f g\nWater: %.0f ml",
		u.DailyCalorieGoal, u.DailyProteinGoal, u.DailyFatGoal, u.DailyCarbsGoal, u.DailyWaterGoal,
	)
}
