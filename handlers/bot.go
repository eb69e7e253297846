package handlers

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
)

const (
	menuProfile   = "👤 Profile"
	menuFood      = "🍽 Food diary"
	menuWater     = "💧 Water"
	menuWeight    = "⚖️ Weight"
	menuActivity  = "🏃 Activity"
	menuProgress  = "📊 Progress"
	menuShopping  = "🛒 Shopping"
	menuReminders = "⏰ Reminders"
	menuRecipes   = "🍳 Recipes"
	menuHelp      = "❓ Help"
)

// menuActions maps persistent-keyboard labels to action codes. Dispatch
// always goes through the code, so renaming a label cannot break routing.
var menuActions = map[string]string{
	menuProfile:   "nav:profile",
	menuFood:      "nav:food",
	menuWater:     "nav:water",
	menuWeight:    "nav:weight",
	menuActivity:  "nav:activity",
	menuProgress:  "nav:progress",
	menuShopping:  "nav:shopping",
	menuReminders: "nav:reminders",
	menuRecipes:   "nav:recipes",
	menuHelp:      "nav:help",
}

var commandActions = map[string]string{
	"start":     "nav:start",
	"help":      "nav:help",
	"cancel":    "nav:cancel",
	"profile":   "nav:profile",
	"food":      "nav:food",
	"water":     "nav:water",
	"weight":    "nav:weight",
	"activity":  "nav:activity",
	"progress":  "nav:progress",
	"shopping":  "nav:shopping",
	"reminders": "nav:reminders",
	"recipes":   "nav:recipes",
}

const (
	msgInternalError = "Something went wrong, please try again."
	msgUnknownInput  = "I did not understand that. Use the menu below or /help."
	msgCancelled     = "Cancelled. Nothing was saved."
	msgNeedProfile   = "Please fill in your profile first: tap " + menuProfile + "."
	photoCacheSize   = 512
	photoCacheTTL    = 10 * time.Minute
)

// Bot is the dialogue engine: it owns the session store and routes every
// incoming event to the right flow step.
type Bot struct {
	transport Transport
	sessions  *SessionStore
	log       *logrus.Logger

	users     *services.UserService
	meals     *services.MealService
	water     *services.WaterService
	activity  *services.ActivityService
	shopping  *services.ShoppingService
	reminders *services.ReminderService

	food    services.FoodAPI
	weather services.WeatherAPI
	vision  services.VisionAPI
	speech  services.SpeechAPI
	text    services.TextAPI
	labels  services.LabelAPI

	// seen photo file ids, so re-forwarding the same shot does not burn a
	// second vision call
	photoCache *lru.LRU[string, string]
}

type Deps struct {
	Transport Transport
	Log       *logrus.Logger

	Users     *services.UserService
	Meals     *services.MealService
	Water     *services.WaterService
	Activity  *services.ActivityService
	Shopping  *services.ShoppingService
	Reminders *services.ReminderService

	Food    services.FoodAPI
	Weather services.WeatherAPI
	Vision  services.VisionAPI
	Speech  services.SpeechAPI
	Text    services.TextAPI
	Labels  services.LabelAPI
}

func NewBot(d Deps) *Bot {
	return &Bot{
		transport:  d.Transport,
		sessions:   NewSessionStore(),
		log:        d.Log,
		users:      d.Users,
		meals:      d.Meals,
		water:      d.Water,
		activity:   d.Activity,
		shopping:   d.Shopping,
		reminders:  d.Reminders,
		food:       d.Food,
		weather:    d.Weather,
		vision:     d.Vision,
		speech:     d.Speech,
		text:       d.Text,
		labels:     d.Labels,
		photoCache: lru.NewLRU[string, string](photoCacheSize, nil, photoCacheTTL),
	}
}

func mainKeyboard() *Keyboard {
	return &Keyboard{Reply: [][]string{
		{menuFood, menuWater},
		{menuWeight, menuActivity},
		{menuProgress, menuShopping},
		{menuReminders, menuRecipes},
		{menuProfile, menuHelp},
	}}
}

// HandleUpdate is the single entry point for incoming events. Global
// navigation wins over whatever flow is in progress; photos and voice notes
// run their external calls outside the session lock.
func (b *Bot) HandleUpdate(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{"user_id": ev.UserID, "panic": r}).Error("handler panic")
			b.sessions.With(ev.UserID, func(s *Session) { s.Clear() })
			b.send(ev.ChatID, msgInternalError, mainKeyboard())
		}
	}()

	if action := b.navAction(ev); action != "" {
		b.sessions.With(ev.UserID, func(s *Session) { s.Clear() })
		b.handleNav(ctx, ev, action)
		return
	}

	if ev.PhotoID != "" {
		b.handlePhoto(ctx, ev)
		return
	}
	if ev.VoiceID != "" {
		b.handleVoice(ctx, ev)
		return
	}

	b.sessions.With(ev.UserID, func(sess *Session) {
		if ev.Action != "" {
			b.handleCallback(ctx, ev, sess)
			return
		}
		b.handleStep(ctx, ev, sess)
	})
}

func (b *Bot) navAction(ev Event) string {
	if ev.Command != "" {
		return commandActions[ev.Command]
	}
	if ev.Text != "" {
		return menuActions[ev.Text]
	}
	return ""
}

func (b *Bot) handleNav(ctx context.Context, ev Event, action string) {
	switch action {
	case "nav:start":
		b.cmdStart(ctx, ev)
	case "nav:help":
		b.cmdHelp(ev)
	case "nav:cancel":
		b.send(ev.ChatID, msgCancelled, mainKeyboard())
	case "nav:profile":
		b.startProfile(ctx, ev)
	case "nav:food":
		b.startFood(ctx, ev)
	case "nav:water":
		b.startWater(ctx, ev)
	case "nav:weight":
		b.startWeight(ctx, ev)
	case "nav:activity":
		b.startActivity(ctx, ev)
	case "nav:progress":
		b.showProgress(ctx, ev)
	case "nav:shopping":
		b.showShoppingLists(ctx, ev)
	case "nav:reminders":
		b.showReminders(ctx, ev)
	case "nav:recipes":
		b.startRecipes(ctx, ev)
	}
}

// handleStep dispatches a plain text message to the active flow step.
func (b *Bot) handleStep(ctx context.Context, ev Event, sess *Session) {
	switch sess.Step {
	case StepProfileWeight, StepProfileHeight, StepProfileAge, StepProfileCity:
		b.profileText(ctx, ev, sess)
	case StepFoodSearch:
		b.foodSearchText(ctx, ev, sess)
	case StepFoodManualName:
		b.foodManualName(ev, sess)
	case StepFoodWeight:
		b.foodWeightText(ctx, ev, sess)
	case StepWaterAmount:
		b.waterAmountText(ev, sess)
	case StepWeightEntry:
		b.weightText(ctx, ev, sess)
	case StepActivityDuration, StepActivityDistance, StepActivityCalories, StepActivitySteps:
		b.activityText(ctx, ev, sess)
	case StepActivityGPX:
		b.activityGPX(ctx, ev, sess)
	case StepShoppingCreate, StepShoppingRename, StepShoppingAddItem:
		b.shoppingText(ctx, ev, sess)
	case StepReminderTitle, StepReminderTime:
		b.reminderText(ev, sess)
	case StepRecipeIngredients:
		b.recipeIngredients(ev, sess)
	default:
		b.send(ev.ChatID, msgUnknownInput, mainKeyboard())
	}
}

// handleCallback dispatches a button press. List browsing and toggles work
// from any state; everything else is checked against the active step.
func (b *Bot) handleCallback(ctx context.Context, ev Event, sess *Session) {
	defer b.transport.AnswerCallback(ev.CallbackID, "")

	verb, arg := splitAction(ev.Action)
	switch verb {
	case "list", "item":
		b.shoppingCallback(ctx, ev, sess, verb, arg)
		return
	case "rem":
		b.reminderCallback(ctx, ev, sess, arg)
		return
	case "profile":
		if arg == "edit" {
			b.beginProfileFlow(ev, sess)
		}
		return
	}

	switch sess.Step {
	case StepProfileGender, StepProfileActivity, StepProfileGoal, StepProfileCity:
		b.profileCallback(ctx, ev, sess, verb, arg)
	case StepFoodMealType:
		b.foodMealType(ctx, ev, sess, verb, arg)
	case StepFoodSearch, StepFoodSelect:
		// the manual-entry button is also offered on an empty search
		b.foodSelect(ev, sess, verb, arg)
	case StepFoodConfirm:
		b.foodConfirm(ctx, ev, sess, verb)
	case StepWaterAmount:
		b.waterCallback(ctx, ev, sess, verb, arg)
	case StepActivitySource, StepActivityType, StepActivityConfirm:
		b.activityCallback(ctx, ev, sess, verb, arg)
	case StepReminderDays, StepReminderConfirm:
		b.reminderFlowCallback(ctx, ev, sess, verb, arg)
	case StepRecipeDiet, StepRecipeDifficulty:
		b.recipeCallback(ctx, ev, sess, verb, arg)
	case StepVoiceChoice:
		b.voiceChoice(ctx, ev, sess, verb, arg)
	default:
		// button from an old message after the flow ended
		b.send(ev.ChatID, msgUnknownInput, mainKeyboard())
	}
}

func (b *Bot) send(chatID int64, text string, kb *Keyboard) {
	if err := b.transport.Send(chatID, text, kb); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Error("send failed")
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string, kb *Keyboard) {
	if err := b.transport.Edit(chatID, messageID, text, kb); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Warn("edit failed")
	}
}

func splitAction(action string) (verb, arg string) {
	for i := 0; i < len(action); i++ {
		if action[i] == ':' {
			return action[:i], action[i+1:]
		}
	}
	return action, ""
}
