package handlers

import (
	"context"
	"fmt"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
	"github.com/Rubl1313-cmyk/nutrybudy-bot/utils"
)

var activityTypeLabels = map[string]string{
	"running":  "🏃 Running",
	"walking":  "🚶 Walking",
	"cycling":  "🚴 Cycling",
	"swimming": "🏊 Swimming",
	"gym":      "🏋️ Gym",
	"other":    "💪 Other",
}

func (b *Bot) startActivity(ctx context.Context, ev Event) {
	if b.requireUser(ev) == nil {
		return
	}
	b.sessions.With(ev.UserID, func(sess *Session) {
		sess.Clear()
		sess.Step = StepActivitySource
	})
	b.send(ev.ChatID, "How do you want to log the workout?", &Keyboard{Inline: [][]Button{
		{{Label: "✍️ Manually", Action: "src:manual"}},
		{{Label: "📂 GPX track file", Action: "src:gpx"}},
		{{Label: "⌚ Steps from a tracker", Action: "src:device"}},
	}})
}

func (b *Bot) activityCallback(ctx context.Context, ev Event, sess *Session, verb, arg string) {
	switch sess.Step {
	case StepActivitySource:
		if verb != "src" {
			return
		}
		switch arg {
		case "manual":
			sess.Set("src", "manual")
			sess.Step = StepActivityType
			b.edit(ev.ChatID, ev.MessageID, "What kind of workout?", &Keyboard{Inline: [][]Button{
				{
					{Label: activityTypeLabels["running"], Action: "act:running"},
					{Label: activityTypeLabels["walking"], Action: "act:walking"},
				},
				{
					{Label: activityTypeLabels["cycling"], Action: "act:cycling"},
					{Label: activityTypeLabels["swimming"], Action: "act:swimming"},
				},
				{
					{Label: activityTypeLabels["gym"], Action: "act:gym"},
					{Label: activityTypeLabels["other"], Action: "act:other"},
				},
			}})
		case "gpx":
			sess.Set("src", "gpx")
			sess.Step = StepActivityGPX
			b.edit(ev.ChatID, ev.MessageID, "Send me the .gpx file of your track.", nil)
		case "device":
			sess.Set("src", "device")
			sess.Set("type", "walking")
			sess.Step = StepActivitySteps
			b.edit(ev.ChatID, ev.MessageID, "How many steps does your tracker show for today?", nil)
		}

	case StepActivityType:
		if verb != "act" {
			return
		}
		if _, ok := activityTypeLabels[arg]; !ok {
			return
		}
		sess.Set("type", arg)
		sess.Step = StepActivityDuration
		b.edit(ev.ChatID, ev.MessageID, "How long did it take, in minutes?", nil)

	case StepActivityConfirm:
		switch verb {
		case "cancel":
			sess.Clear()
			b.edit(ev.ChatID, ev.MessageID, msgCancelled, nil)
		case "confirm":
			b.commitActivity(ev, sess)
		}
	}
}

func (b *Bot) activityText(ctx context.Context, ev Event, sess *Session) {
	switch sess.Step {
	case StepActivityDuration:
		v, err := parseIntInRange(ev.Text, minDurationMin, maxDurationMin)
		if err != nil {
			b.send(ev.ChatID, fmt.Sprintf("Please send a duration between %d and %d minutes.", minDurationMin, maxDurationMin), nil)
			return
		}
		sess.Set("duration", v)
		sess.Step = StepActivityDistance
		b.send(ev.ChatID, "Distance in km? Send 0 if it does not apply.", nil)

	case StepActivityDistance:
		v, err := parseFloatInRange(ev.Text, minDistanceKm, maxDistanceKm)
		if err != nil {
			b.send(ev.ChatID, fmt.Sprintf("Please send a distance between %.0f and %.0f km.", minDistanceKm, maxDistanceKm), nil)
			return
		}
		sess.Set("distance", v)
		sess.Step = StepActivityCalories
		b.send(ev.ChatID, "Calories burned? Send 0 if you do not know.", nil)

	case StepActivityCalories:
		v, err := parseIntInRange(ev.Text, minCalories, maxCalories)
		if err != nil {
			b.send(ev.ChatID, fmt.Sprintf("Please send calories between %d and %d.", minCalories, maxCalories), nil)
			return
		}
		sess.Set("calories", v)
		b.askActivityConfirm(ev, sess)

	case StepActivitySteps:
		v, err := parseIntInRange(ev.Text, 0, maxSteps)
		if err != nil {
			b.send(ev.ChatID, fmt.Sprintf("Please send a step count between 0 and %d.", maxSteps), nil)
			return
		}
		sess.Set("steps", v)
		if sess.String("src") == "device" {
			// a tracker reports only steps, estimate the rest
			sess.Set("duration", v/100)
			sess.Set("distance", float64(v)*0.0007)
			sess.Set("calories", int(float64(v)*0.04))
		}
		b.askActivityConfirm(ev, sess)
	}
}

func (b *Bot) activityGPX(ctx context.Context, ev Event, sess *Session) {
	if ev.DocumentID == "" {
		b.send(ev.ChatID, "Please attach a .gpx file.", nil)
		return
	}
	data, err := b.transport.Download(ev.DocumentID)
	if err != nil {
		b.log.WithError(err).Warn("gpx download failed")
		b.send(ev.ChatID, "I could not fetch that file, please send it again.", nil)
		return
	}
	track, err := utils.ParseGPX(data)
	if err != nil {
		b.log.WithError(err).WithField("file", ev.DocumentName).Warn("gpx parse failed")
		b.send(ev.ChatID, "That does not look like a valid GPX track. Please send another file.", nil)
		return
	}

	user := b.requireUser(ev)
	if user == nil {
		sess.Clear()
		return
	}
	sess.Set("type", "running")
	sess.Set("duration", int(track.Duration.Minutes()))
	sess.Set("distance", track.DistanceKm)
	sess.Set("calories", int(utils.EstimateRunCalories(user.Weight, track.DistanceKm)))
	b.askActivityConfirm(ev, sess)
}

func (b *Bot) askActivityConfirm(ev Event, sess *Session) {
	sess.Step = StepActivityConfirm
	text := fmt.Sprintf(
		"%s\nDuration: %d min\nDistance: %.1f km\nCalories: %d kcal\n\nSave it?",
		activityTypeLabels[sess.String("type")],
		sess.Int("duration"), sess.Float("distance"), sess.Int("calories"),
	)
	b.send(ev.ChatID, text, &Keyboard{Inline: InlineRow(
		Button{Label: "✅ Save", Action: "confirm"},
		Button{Label: "❌ Cancel", Action: "cancel"},
	)})
}

func (b *Bot) commitActivity(ev Event, sess *Session) {
	user := b.requireUser(ev)
	if user == nil {
		sess.Clear()
		return
	}
	err := b.activity.Add(user.ID, services.ActivityInput{
		ActivityType:   sess.String("type"),
		Duration:       sess.Int("duration"),
		Distance:       sess.Float("distance"),
		CaloriesBurned: float64(sess.Int("calories")),
		Steps:          sess.Int("steps"),
		Source:         sess.String("src"),
	})
	if err != nil {
		b.log.WithError(err).WithField("user_id", ev.UserID).Error("save activity")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	calories := sess.Int("calories")
	sess.Clear()

	text := fmt.Sprintf("✅ Workout saved, %d kcal burned.", calories)
	if burned, berr := b.activity.TodayBurned(user.ID); berr == nil {
		text += fmt.Sprintf("\n🔥 Burned today: %.0f kcal", burned)
	}
	b.edit(ev.ChatID, ev.MessageID, text, nil)
}
