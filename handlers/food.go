package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
)

var mealTypeLabels = map[string]string{
	"breakfast": "🌅 Breakfast",
	"lunch":     "🌞 Lunch",
	"dinner":    "🌙 Dinner",
	"snack":     "🍎 Snack",
}

func mealTypeKeyboard() *Keyboard {
	return &Keyboard{Inline: [][]Button{
		{
			{Label: mealTypeLabels["breakfast"], Action: "meal:breakfast"},
			{Label: mealTypeLabels["lunch"], Action: "meal:lunch"},
		},
		{
			{Label: mealTypeLabels["dinner"], Action: "meal:dinner"},
			{Label: mealTypeLabels["snack"], Action: "meal:snack"},
		},
	}}
}

func (b *Bot) startFood(ctx context.Context, ev Event) {
	if b.requireUser(ev) == nil {
		return
	}
	b.sessions.With(ev.UserID, func(sess *Session) {
		sess.Clear()
		sess.Step = StepFoodMealType
	})
	b.send(ev.ChatID, "Which meal do you want to log?", mealTypeKeyboard())
}

func (b *Bot) foodMealType(ctx context.Context, ev Event, sess *Session, verb, arg string) {
	if verb != "meal" {
		return
	}
	if _, ok := mealTypeLabels[arg]; !ok {
		return
	}
	sess.Set("meal_type", arg)

	// photo and voice intake stash a query before the meal type is known
	if query := sess.String("query"); query != "" {
		b.edit(ev.ChatID, ev.MessageID, mealTypeLabels[arg], nil)
		b.runFoodSearch(ctx, ev, sess, query)
		return
	}
	sess.Step = StepFoodSearch
	b.edit(ev.ChatID, ev.MessageID,
		"What did you eat? Send a name, a barcode, a photo or a voice note.", nil)
}

func (b *Bot) foodSearchText(ctx context.Context, ev Event, sess *Session) {
	query := strings.TrimSpace(ev.Text)
	if query == "" {
		b.send(ev.ChatID, "Please send a food name or barcode.", nil)
		return
	}
	b.runFoodSearch(ctx, ev, sess, query)
}

// runFoodSearch resolves a query to product candidates: barcode lookup for
// digit strings, name search otherwise, with a longest-word retry before
// falling back to manual entry.
func (b *Bot) runFoodSearch(ctx context.Context, ev Event, sess *Session, query string) {
	var (
		products []services.FoodProduct
		err      error
	)
	if services.IsBarcode(query) {
		products, err = b.food.LookupBarcode(ctx, query)
	} else {
		products, err = b.food.Search(ctx, query)
		if err == nil && len(products) == 0 {
			if word := longestWord(query); word != "" && word != query {
				products, err = b.food.Search(ctx, word)
			}
		}
	}
	if err != nil {
		b.log.WithError(err).WithField("query", query).Warn("food lookup failed")
		sess.Step = StepFoodSearch
		b.send(ev.ChatID, "The food database is not answering right now. You can enter the food manually.",
			&Keyboard{Inline: InlineRow(Button{Label: "✍️ Enter manually", Action: "food:manual"})})
		return
	}
	if len(products) == 0 {
		sess.Step = StepFoodSearch
		b.send(ev.ChatID, fmt.Sprintf("Nothing found for \"%s\". Try another name or enter it manually.", query),
			&Keyboard{Inline: InlineRow(Button{Label: "✍️ Enter manually", Action: "food:manual"})})
		return
	}

	sess.Set("results", products)
	sess.Step = StepFoodSelect

	var rows [][]Button
	for i, p := range products {
		label := p.Name
		if p.Calories > 0 {
			label = fmt.Sprintf("%s (%.0f kcal/100g)", p.Name, p.Calories)
		}
		rows = append(rows, []Button{{Label: label, Action: "food:" + strconv.Itoa(i)}})
	}
	rows = append(rows, []Button{
		{Label: "✍️ Enter manually", Action: "food:manual"},
		{Label: "❌ Cancel", Action: "food:cancel"},
	})
	b.send(ev.ChatID, "Pick the closest match:", &Keyboard{Inline: rows})
}

func (b *Bot) foodSelect(ev Event, sess *Session, verb, arg string) {
	if verb != "food" {
		return
	}
	switch arg {
	case "manual":
		sess.Step = StepFoodManualName
		b.edit(ev.ChatID, ev.MessageID, "What is the food called?", nil)
		return
	case "cancel":
		sess.Clear()
		b.edit(ev.ChatID, ev.MessageID, msgCancelled, nil)
		return
	}

	idx, err := strconv.Atoi(arg)
	results := sess.Foods("results")
	if err != nil || idx < 0 || idx >= len(results) {
		// stale or forged index, ignore and stay where we are
		return
	}
	sess.Set("selected", results[idx])
	sess.Step = StepFoodWeight
	b.edit(ev.ChatID, ev.MessageID,
		fmt.Sprintf("How many grams of %s did you eat?", results[idx].Name), nil)
}

func (b *Bot) foodManualName(ev Event, sess *Session) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		b.send(ev.ChatID, "Please send the food name.", nil)
		return
	}
	// nutrition unknown, recorded as zeros
	sess.Set("selected", services.FoodProduct{Name: name})
	sess.Step = StepFoodWeight
	b.send(ev.ChatID, fmt.Sprintf("How many grams of %s did you eat?", name), nil)
}

func (b *Bot) foodWeightText(ctx context.Context, ev Event, sess *Session) {
	grams, err := parseFloatInRange(ev.Text, minPortionG, maxPortionG)
	if err != nil {
		b.send(ev.ChatID, fmt.Sprintf("Please send a portion between %.0f and %.0f grams.", minPortionG, maxPortionG), nil)
		return
	}
	selected, _ := sess.Data["selected"].(services.FoodProduct)
	factor := grams / 100

	portion := services.FoodPortion{
		Name:     selected.Name,
		Weight:   grams,
		Calories: selected.Calories * factor,
		Protein:  selected.Protein * factor,
		Fat:      selected.Fat * factor,
		Carbs:    selected.Carbs * factor,
		Barcode:  selected.Barcode,
	}
	sess.Set("portion", portion)
	sess.Step = StepFoodConfirm

	text := fmt.Sprintf(
		"%s\n%s, %.0f g\n\nCalories: %.0f kcal\nProtein: %.1f g\nFat: %.1f g\nCarbs: %.1f g\n\nSave it?",
		mealTypeLabels[sess.String("meal_type")], portion.Name, grams,
		portion.Calories, portion.Protein, portion.Fat, portion.Carbs,
	)
	b.send(ev.ChatID, text, &Keyboard{Inline: InlineRow(
		Button{Label: "✅ Save", Action: "confirm"},
		Button{Label: "❌ Cancel", Action: "cancel"},
	)})
}

func (b *Bot) foodConfirm(ctx context.Context, ev Event, sess *Session, verb string) {
	switch verb {
	case "cancel":
		sess.Clear()
		b.edit(ev.ChatID, ev.MessageID, msgCancelled, nil)
		return
	case "confirm":
	default:
		return
	}

	user := b.requireUser(ev)
	if user == nil {
		sess.Clear()
		return
	}
	portion, _ := sess.Data["portion"].(services.FoodPortion)
	_, err := b.meals.AddMeal(user.ID,
		sess.String("meal_type"), sess.String("ai_description"), sess.String("photo_id"),
		[]services.FoodPortion{portion})
	if err != nil {
		b.log.WithError(err).WithField("user_id", ev.UserID).Error("save meal")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	sess.Clear()

	text := fmt.Sprintf("✅ Saved: %s, %.0f g (%.0f kcal).", portion.Name, portion.Weight, portion.Calories)
	if consumed, cerr := b.meals.TodayConsumed(user.ID); cerr == nil && user.DailyCalorieGoal > 0 {
		text += fmt.Sprintf("\n\nToday: %.0f / %.0f kcal\n%s",
			consumed, user.DailyCalorieGoal, bar(consumed, user.DailyCalorieGoal, 10))
	}
	b.edit(ev.ChatID, ev.MessageID, text, nil)
}

const visionPrompt = "Name the main dish or foods visible in this photo in a few words."

// handlePhoto runs the vision call outside the session lock and re-checks
// the step before applying the result, so a slow call cannot clobber a
// conversation that moved on.
func (b *Bot) handlePhoto(ctx context.Context, ev Event) {
	if b.requireUser(ev) == nil {
		return
	}
	before := b.sessions.StepOf(ev.UserID)

	description, err := b.describePhoto(ctx, ev.PhotoID)
	if err != nil {
		b.log.WithError(err).WithField("user_id", ev.UserID).Warn("photo recognition failed")
		b.send(ev.ChatID, "I could not recognize that photo. Try typing the food name instead.", nil)
		return
	}

	b.sessions.With(ev.UserID, func(sess *Session) {
		if sess.Step != before {
			b.log.WithField("user_id", ev.UserID).Info("dropping stale photo result")
			return
		}
		sess.Clear()
		sess.Step = StepFoodMealType
		sess.Set("query", description)
		sess.Set("ai_description", description)
		sess.Set("photo_id", ev.PhotoID)
		b.send(ev.ChatID, fmt.Sprintf("🔍 Looks like: <b>%s</b>\n\nWhich meal is this?", description), mealTypeKeyboard())
	})
}

// describePhoto goes to the vision model first and falls back to label
// detection. Repeated file ids are served from the cache without another
// call.
func (b *Bot) describePhoto(ctx context.Context, fileID string) (string, error) {
	if cached, ok := b.photoCache.Get(fileID); ok {
		return cached, nil
	}

	image, err := b.transport.Download(fileID)
	if err != nil {
		return "", err
	}

	description, err := b.vision.DescribeImage(ctx, image, visionPrompt)
	if err != nil {
		if !errors.Is(err, services.ErrAIUnavailable) {
			b.log.WithError(err).Warn("vision model failed, trying label detection")
		}
		if b.labels == nil {
			return "", err
		}
		tags, lerr := b.labels.RecognizeLabels(ctx, image)
		if lerr != nil || len(tags) == 0 {
			return "", err
		}
		description = strings.Join(tags, ", ")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return "", fmt.Errorf("empty recognition result")
	}

	b.photoCache.Add(fileID, description)
	return description, nil
}

func (b *Bot) handleVoice(ctx context.Context, ev Event) {
	if b.requireUser(ev) == nil {
		return
	}
	before := b.sessions.StepOf(ev.UserID)

	audio, err := b.transport.Download(ev.VoiceID)
	if err != nil {
		b.log.WithError(err).Warn("voice download failed")
		b.send(ev.ChatID, "I could not fetch that voice note, please try again.", nil)
		return
	}
	transcript, err := b.speech.Transcribe(ctx, audio, "")
	if err != nil || strings.TrimSpace(transcript) == "" {
		b.log.WithError(err).WithField("user_id", ev.UserID).Warn("transcription failed")
		b.send(ev.ChatID, "I could not understand that voice note. Try typing instead.", nil)
		return
	}
	transcript = strings.TrimSpace(transcript)

	b.sessions.With(ev.UserID, func(sess *Session) {
		if sess.Step != before {
			b.log.WithField("user_id", ev.UserID).Info("dropping stale transcript")
			return
		}
		sess.Clear()
		sess.Step = StepVoiceChoice
		sess.Set("query", transcript)
		b.send(ev.ChatID, fmt.Sprintf("I heard: <i>%s</i>\n\nWhat should I do with it?", transcript),
			&Keyboard{Inline: [][]Button{
				{
					{Label: "🍽 Log as food", Action: "voice:food"},
					{Label: "🛒 Shopping list", Action: "voice:shop"},
				},
				{
					{Label: "🍳 Recipe idea", Action: "voice:recipe"},
					{Label: "❌ Nothing", Action: "voice:cancel"},
				},
			}})
	})
}

func (b *Bot) voiceChoice(ctx context.Context, ev Event, sess *Session, verb, arg string) {
	if verb != "voice" {
		return
	}
	switch arg {
	case "food":
		sess.Step = StepFoodMealType
		b.edit(ev.ChatID, ev.MessageID, "Which meal is this?", mealTypeKeyboard())
	case "shop":
		b.addTranscriptToShopping(ev, sess)
	case "recipe":
		sess.Set("ingredients", sess.String("query"))
		sess.Step = StepRecipeDiet
		b.edit(ev.ChatID, ev.MessageID, "Any dietary preference?", dietKeyboard())
	case "cancel":
		sess.Clear()
		b.edit(ev.ChatID, ev.MessageID, msgCancelled, nil)
	}
}

// addTranscriptToShopping puts the spoken item on the newest active list,
// creating a default list when there is none.
func (b *Bot) addTranscriptToShopping(ev Event, sess *Session) {
	user := b.requireUser(ev)
	if user == nil {
		sess.Clear()
		return
	}
	item := sess.String("query")
	sess.Clear()

	lists, err := b.shopping.ActiveLists(user.ID)
	if err != nil {
		b.log.WithError(err).Error("load lists for voice item")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	var listID uint
	if len(lists) > 0 {
		listID = lists[0].ID
	} else {
		list, cerr := b.shopping.CreateList(user.ID, "Groceries")
		if cerr != nil {
			b.log.WithError(cerr).Error("create default list")
			b.send(ev.ChatID, msgInternalError, mainKeyboard())
			return
		}
		listID = list.ID
	}
	if _, err := b.shopping.AddItem(user.ID, listID, item, "", ev.UserID); err != nil {
		b.log.WithError(err).Error("add voice item")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	b.renderList(ev, user.ID, listID, true)
}
