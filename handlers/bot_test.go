package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/config"
	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
)

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *Keyboard
}

type fakeTransport struct {
	mu    sync.Mutex
	sent  []sentMessage
	files map[string][]byte
}

func (f *fakeTransport) Send(chatID int64, text string, kb *Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: kb})
	return nil
}

func (f *fakeTransport) Edit(chatID int64, messageID int, text string, kb *Keyboard) error {
	return f.Send(chatID, text, kb)
}

func (f *fakeTransport) AnswerCallback(callbackID, text string) error { return nil }

func (f *fakeTransport) Download(fileID string) ([]byte, error) {
	if data, ok := f.files[fileID]; ok {
		return data, nil
	}
	return []byte("binary"), nil
}

func (f *fakeTransport) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeTransport) allText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sb strings.Builder
	for _, m := range f.sent {
		sb.WriteString(m.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

type fakeFood struct {
	products []services.FoodProduct
	err      error
	queries  []string
}

func (f *fakeFood) Search(ctx context.Context, query string) ([]services.FoodProduct, error) {
	f.queries = append(f.queries, query)
	return f.products, f.err
}

func (f *fakeFood) LookupBarcode(ctx context.Context, barcode string) ([]services.FoodProduct, error) {
	f.queries = append(f.queries, barcode)
	return f.products, f.err
}

type fakeWeather struct{ temp float64 }

func (f *fakeWeather) CurrentTemperature(ctx context.Context, city string) float64 { return f.temp }

type fakeAI struct {
	description string
	transcript  string
	generated   string
	err         error
}

func (f *fakeAI) DescribeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	return f.description, f.err
}

func (f *fakeAI) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	return f.transcript, f.err
}

func (f *fakeAI) Generate(ctx context.Context, prompt string) (string, error) {
	return f.generated, f.err
}

type testEnv struct {
	bot       *Bot
	transport *fakeTransport
	db        *gorm.DB
	food      *fakeFood
	ai        *fakeAI
	weather   *fakeWeather
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	transport := &fakeTransport{files: map[string][]byte{}}
	food := &fakeFood{}
	ai := &fakeAI{}
	weather := &fakeWeather{temp: 15}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	bot := NewBot(Deps{
		Transport: transport,
		Log:       log,
		Users:     services.NewUserService(db),
		Meals:     services.NewMealService(db),
		Water:     services.NewWaterService(db),
		Activity:  services.NewActivityService(db),
		Shopping:  services.NewShoppingService(db),
		Reminders: services.NewReminderService(db),
		Food:      food,
		Weather:   weather,
		Vision:    ai,
		Speech:    ai,
		Text:      ai,
	})
	return &testEnv{bot: bot, transport: transport, db: db, food: food, ai: ai, weather: weather}
}

const testUserID = int64(42)

func text(s string) Event {
	return Event{UserID: testUserID, ChatID: testUserID, Text: s}
}

func command(s string) Event {
	return Event{UserID: testUserID, ChatID: testUserID, Command: s}
}

func callback(action string) Event {
	return Event{UserID: testUserID, ChatID: testUserID, MessageID: 7, Action: action, CallbackID: "cb"}
}

func (e *testEnv) step() Step {
	return e.bot.sessions.StepOf(testUserID)
}

func (e *testEnv) completeProfile(t *testing.T) *models.User {
	t.Helper()
	ctx := context.Background()
	e.bot.HandleUpdate(ctx, command("profile"))
	e.bot.HandleUpdate(ctx, text("75"))
	e.bot.HandleUpdate(ctx, text("180"))
	e.bot.HandleUpdate(ctx, text("30"))
	e.bot.HandleUpdate(ctx, callback("gender:male"))
	e.bot.HandleUpdate(ctx, callback("active:medium"))
	e.bot.HandleUpdate(ctx, callback("goal:lose"))
	e.bot.HandleUpdate(ctx, callback("city:skip"))

	var user models.User
	require.NoError(t, e.db.Where("telegram_id = ?", testUserID).First(&user).Error)
	return &user
}

func TestProfileFlowComputesTargets(t *testing.T) {
	env := newTestEnv(t)
	user := env.completeProfile(t)

	// 10*75 + 6.25*180 - 5*30 + 5 = 1730, *1.55 = 2681.5, -500 = 2181.5
	assert.InDelta(t, 2181.5, user.DailyCalorieGoal, 0.01)
	// city skipped, so the 20 C default applies and there is no heat bonus:
	// 75*30 + 500
	assert.InDelta(t, 2750, user.DailyWaterGoal, 0.01)
	assert.True(t, user.ProfileComplete())
	assert.Equal(t, StepNone, env.step())
	assert.Contains(t, env.transport.allText(), "Profile saved")
}

func TestProfileCityTemperatureRaisesWaterGoal(t *testing.T) {
	env := newTestEnv(t)
	env.weather.temp = 30
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("profile"))
	env.bot.HandleUpdate(ctx, text("75"))
	env.bot.HandleUpdate(ctx, text("180"))
	env.bot.HandleUpdate(ctx, text("30"))
	env.bot.HandleUpdate(ctx, callback("gender:male"))
	env.bot.HandleUpdate(ctx, callback("active:medium"))
	env.bot.HandleUpdate(ctx, callback("goal:lose"))
	env.bot.HandleUpdate(ctx, text("Madrid"))

	var user models.User
	require.NoError(t, env.db.Where("telegram_id = ?", testUserID).First(&user).Error)
	assert.Equal(t, "Madrid", user.City)
	// 75*30 + 500 + (30-20)/10*200 heat surcharge
	assert.InDelta(t, 2950, user.DailyWaterGoal, 0.01)
}

func TestProfileRejectsOutOfRangeWeight(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("profile"))
	require.Equal(t, StepProfileWeight, env.step())

	env.bot.HandleUpdate(ctx, text("1000"))
	assert.Equal(t, StepProfileWeight, env.step(), "invalid input must not advance the flow")

	env.bot.HandleUpdate(ctx, text("abc"))
	assert.Equal(t, StepProfileWeight, env.step())

	env.bot.HandleUpdate(ctx, text("NaN"))
	assert.Equal(t, StepProfileWeight, env.step(), "NaN parses as a float but is never in range")

	env.bot.HandleUpdate(ctx, text("75"))
	assert.Equal(t, StepProfileHeight, env.step())
}

func TestFlowsRequireProfile(t *testing.T) {
	env := newTestEnv(t)
	env.bot.HandleUpdate(context.Background(), command("water"))
	assert.Equal(t, StepNone, env.step())
	assert.Contains(t, env.transport.last().Text, "profile")
}

func TestWaterPresetPersists(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("water"))
	require.Equal(t, StepWaterAmount, env.step())

	env.bot.HandleUpdate(ctx, callback("water:300"))
	assert.Equal(t, StepNone, env.step())

	var total float64
	require.NoError(t, env.db.Model(&models.WaterEntry{}).
		Select("COALESCE(SUM(amount), 0)").Scan(&total).Error)
	assert.InDelta(t, 300, total, 0.01)

	// 300 of 2750 ml rounds to 11%
	assert.Contains(t, env.transport.last().Text, "(11%)")
}

func TestWaterStatsShowAverage(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("water"))
	env.bot.HandleUpdate(ctx, callback("water:500"))
	env.bot.HandleUpdate(ctx, command("water"))
	env.bot.HandleUpdate(ctx, text("300"))

	env.bot.HandleUpdate(ctx, command("water"))
	env.bot.HandleUpdate(ctx, callback("water:stats"))

	last := env.transport.last().Text
	assert.Contains(t, last, "Last 7 days")
	assert.Contains(t, last, "800 ml", "the single logged day totals 800 ml")
	assert.Contains(t, last, "Average: 800 ml")
}

func TestWaterTypedAmountValidated(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("water"))
	env.bot.HandleUpdate(ctx, text("99999"))
	assert.Equal(t, StepWaterAmount, env.step())

	env.bot.HandleUpdate(ctx, text("450"))
	assert.Equal(t, StepNone, env.step())

	var count int64
	env.db.Model(&models.WaterEntry{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestFoodFlowFromSearchToMeal(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()
	env.food.products = []services.FoodProduct{
		{Name: "Oatmeal", Calories: 380, Protein: 13, Fat: 7, Carbs: 68},
		{Name: "Oat cookies", Calories: 450, Protein: 6, Fat: 18, Carbs: 65},
	}

	env.bot.HandleUpdate(ctx, command("food"))
	require.Equal(t, StepFoodMealType, env.step())

	env.bot.HandleUpdate(ctx, callback("meal:breakfast"))
	require.Equal(t, StepFoodSearch, env.step())

	env.bot.HandleUpdate(ctx, text("oatmeal"))
	require.Equal(t, StepFoodSelect, env.step())

	env.bot.HandleUpdate(ctx, callback("food:0"))
	require.Equal(t, StepFoodWeight, env.step())

	env.bot.HandleUpdate(ctx, text("150"))
	require.Equal(t, StepFoodConfirm, env.step())

	env.bot.HandleUpdate(ctx, callback("confirm"))
	assert.Equal(t, StepNone, env.step())

	var meal models.Meal
	require.NoError(t, env.db.Preload("Foods").First(&meal).Error)
	assert.Equal(t, "breakfast", meal.MealType)
	require.Len(t, meal.Foods, 1)
	assert.InDelta(t, 570, meal.Foods[0].Calories, 0.01) // 380 * 1.5
	assert.InDelta(t, 570, meal.TotalCalories, 0.01)
}

func TestFoodSelectRejectsStaleIndex(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()
	env.food.products = []services.FoodProduct{{Name: "Rice", Calories: 130}}

	env.bot.HandleUpdate(ctx, command("food"))
	env.bot.HandleUpdate(ctx, callback("meal:lunch"))
	env.bot.HandleUpdate(ctx, text("rice"))
	require.Equal(t, StepFoodSelect, env.step())

	env.bot.HandleUpdate(ctx, callback("food:5"))
	assert.Equal(t, StepFoodSelect, env.step(), "an index past the result list must be ignored")

	env.bot.HandleUpdate(ctx, callback("food:-1"))
	assert.Equal(t, StepFoodSelect, env.step())
}

func TestFoodSearchFallsBackToLongestWord(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("food"))
	env.bot.HandleUpdate(ctx, callback("meal:dinner"))
	env.bot.HandleUpdate(ctx, text("big bowl of spaghetti"))

	require.GreaterOrEqual(t, len(env.food.queries), 2)
	assert.Equal(t, "big bowl of spaghetti", env.food.queries[0])
	assert.Equal(t, "spaghetti", env.food.queries[1])
	assert.Equal(t, StepFoodSearch, env.step())
	assert.Contains(t, env.transport.last().Text, "Nothing found")
}

func TestFoodManualEntryHasZeroNutrition(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("food"))
	env.bot.HandleUpdate(ctx, callback("meal:snack"))
	env.bot.HandleUpdate(ctx, text("grandma pie"))
	env.bot.HandleUpdate(ctx, callback("food:manual"))
	require.Equal(t, StepFoodManualName, env.step())

	env.bot.HandleUpdate(ctx, text("Grandma's pie"))
	env.bot.HandleUpdate(ctx, text("200"))
	env.bot.HandleUpdate(ctx, callback("confirm"))

	var meal models.Meal
	require.NoError(t, env.db.Preload("Foods").First(&meal).Error)
	require.Len(t, meal.Foods, 1)
	assert.Equal(t, "Grandma's pie", meal.Foods[0].Name)
	assert.Zero(t, meal.Foods[0].Calories)
	assert.InDelta(t, 200, meal.Foods[0].Weight, 0.01)
}

func TestCancelMidFlowPersistsNothing(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()
	env.food.products = []services.FoodProduct{{Name: "Pizza", Calories: 270}}

	env.bot.HandleUpdate(ctx, command("food"))
	env.bot.HandleUpdate(ctx, callback("meal:dinner"))
	env.bot.HandleUpdate(ctx, text("pizza"))
	env.bot.HandleUpdate(ctx, callback("food:0"))
	env.bot.HandleUpdate(ctx, command("cancel"))

	assert.Equal(t, StepNone, env.step())
	var count int64
	env.db.Model(&models.Meal{}).Count(&count)
	assert.Zero(t, count)
}

func TestGlobalNavigationBeatsActiveFlow(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("food"))
	require.Equal(t, StepFoodMealType, env.step())

	// the menu button label, not a number, while a flow waits for input
	env.bot.HandleUpdate(ctx, text(menuWater))
	assert.Equal(t, StepWaterAmount, env.step())
}

func TestWeightLogUpdatesGoals(t *testing.T) {
	env := newTestEnv(t)
	before := env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("weight"))
	require.Equal(t, StepWeightEntry, env.step())
	env.bot.HandleUpdate(ctx, text("73.5"))

	var after models.User
	require.NoError(t, env.db.Where("telegram_id = ?", testUserID).First(&after).Error)
	assert.InDelta(t, 73.5, after.Weight, 0.01)
	assert.Less(t, after.DailyCalorieGoal, before.DailyCalorieGoal)

	var count int64
	env.db.Model(&models.WeightEntry{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestActivityManualFlow(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("activity"))
	env.bot.HandleUpdate(ctx, callback("src:manual"))
	env.bot.HandleUpdate(ctx, callback("act:running"))
	env.bot.HandleUpdate(ctx, text("45"))
	env.bot.HandleUpdate(ctx, text("7.5"))
	env.bot.HandleUpdate(ctx, text("520"))
	require.Equal(t, StepActivityConfirm, env.step())
	env.bot.HandleUpdate(ctx, callback("confirm"))

	var activity models.Activity
	require.NoError(t, env.db.First(&activity).Error)
	assert.Equal(t, "running", activity.ActivityType)
	assert.Equal(t, 45, activity.Duration)
	assert.InDelta(t, 7.5, activity.Distance, 0.01)
	assert.InDelta(t, 520, activity.CaloriesBurned, 0.01)
	assert.Equal(t, "manual", activity.Source)
}

func TestShoppingListLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("shopping"))
	env.bot.HandleUpdate(ctx, callback("list:new"))
	env.bot.HandleUpdate(ctx, text("Weekend groceries"))

	var list models.ShoppingList
	require.NoError(t, env.db.First(&list).Error)
	assert.Equal(t, "Weekend groceries", list.Name)

	env.bot.HandleUpdate(ctx, callback(fmt.Sprintf("list:add:%d", list.ID)))
	env.bot.HandleUpdate(ctx, text("Milk, 2 l"))

	var item models.ShoppingItem
	require.NoError(t, env.db.First(&item).Error)
	assert.Equal(t, "Milk", item.Name)
	assert.Equal(t, "2 l", item.Quantity)
	assert.False(t, item.Checked)

	env.bot.HandleUpdate(ctx, callback(fmt.Sprintf("item:%d:%d", item.ID, list.ID)))
	require.NoError(t, env.db.First(&item, item.ID).Error)
	assert.True(t, item.Checked)
}

func TestReminderFlowCreatesReminder(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("reminders"))
	env.bot.HandleUpdate(ctx, callback("rem:new"))
	env.bot.HandleUpdate(ctx, callback("rem:type:water"))
	require.Equal(t, StepReminderTime, env.step())

	env.bot.HandleUpdate(ctx, text("25:70"))
	assert.Equal(t, StepReminderTime, env.step())

	env.bot.HandleUpdate(ctx, text("9:30"))
	env.bot.HandleUpdate(ctx, callback("day:daily"))
	env.bot.HandleUpdate(ctx, callback("confirm"))

	var reminder models.Reminder
	require.NoError(t, env.db.First(&reminder).Error)
	assert.Equal(t, "water", reminder.Type)
	assert.Equal(t, "09:30", reminder.Time)
	assert.Equal(t, "daily", reminder.Days)
	assert.True(t, reminder.Enabled)
}

func TestPhotoStartsFoodFlow(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()
	env.ai.description = "pasta carbonara"

	env.bot.HandleUpdate(ctx, Event{UserID: testUserID, ChatID: testUserID, PhotoID: "photo-1"})
	assert.Equal(t, StepFoodMealType, env.step())
	assert.Contains(t, env.transport.last().Text, "pasta carbonara")
}

func TestDuplicatePhotoServedFromCache(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()
	env.ai.description = "cheeseburger"

	env.bot.HandleUpdate(ctx, Event{UserID: testUserID, ChatID: testUserID, PhotoID: "photo-2"})
	env.ai.description = "salad" // a second call would say something else

	env.bot.HandleUpdate(ctx, command("cancel"))
	env.bot.HandleUpdate(ctx, Event{UserID: testUserID, ChatID: testUserID, PhotoID: "photo-2"})
	assert.Contains(t, env.transport.last().Text, "cheeseburger")
}

func TestVoiceNoteRoutesToFood(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()
	env.ai.transcript = "two boiled eggs"

	env.bot.HandleUpdate(ctx, Event{UserID: testUserID, ChatID: testUserID, VoiceID: "voice-1"})
	require.Equal(t, StepVoiceChoice, env.step())

	env.bot.HandleUpdate(ctx, callback("voice:food"))
	require.Equal(t, StepFoodMealType, env.step())

	env.bot.HandleUpdate(ctx, callback("meal:breakfast"))
	require.NotEmpty(t, env.food.queries)
	assert.Equal(t, "two boiled eggs", env.food.queries[0])
}

func TestVoiceNoteAddsShoppingItem(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()
	env.ai.transcript = "buckwheat"

	env.bot.HandleUpdate(ctx, Event{UserID: testUserID, ChatID: testUserID, VoiceID: "voice-2"})
	env.bot.HandleUpdate(ctx, callback("voice:shop"))

	var list models.ShoppingList
	require.NoError(t, env.db.Preload("Items").First(&list).Error)
	assert.Equal(t, "Groceries", list.Name)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "buckwheat", list.Items[0].Name)
	assert.Equal(t, StepNone, env.step())
}

func TestVoiceNoteAsRecipeIngredients(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()
	env.ai.transcript = "salmon and potatoes"
	env.ai.generated = "Baked salmon with potatoes: ..."

	env.bot.HandleUpdate(ctx, Event{UserID: testUserID, ChatID: testUserID, VoiceID: "voice-3"})
	env.bot.HandleUpdate(ctx, callback("voice:recipe"))
	require.Equal(t, StepRecipeDiet, env.step())

	env.bot.HandleUpdate(ctx, callback("diet:regular"))
	env.bot.HandleUpdate(ctx, callback("level:normal"))
	assert.Contains(t, env.transport.last().Text, "Baked salmon")
}

func TestActivityDeviceStepsEstimate(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("activity"))
	env.bot.HandleUpdate(ctx, callback("src:device"))
	require.Equal(t, StepActivitySteps, env.step())

	env.bot.HandleUpdate(ctx, text("8000"))
	require.Equal(t, StepActivityConfirm, env.step())
	env.bot.HandleUpdate(ctx, callback("confirm"))

	var activity models.Activity
	require.NoError(t, env.db.First(&activity).Error)
	assert.Equal(t, "device", activity.Source)
	assert.Equal(t, 8000, activity.Steps)
	assert.InDelta(t, 320, activity.CaloriesBurned, 0.01) // 8000 * 0.04
	assert.InDelta(t, 5.6, activity.Distance, 0.01)
}

func TestRecipeFlowUsesTextModel(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()
	env.ai.generated = "Chicken and rice bowl: ..."

	env.bot.HandleUpdate(ctx, command("recipes"))
	env.bot.HandleUpdate(ctx, text("chicken, rice, soy sauce"))
	env.bot.HandleUpdate(ctx, callback("diet:regular"))
	env.bot.HandleUpdate(ctx, callback("level:quick"))

	assert.Equal(t, StepNone, env.step())
	assert.Contains(t, env.transport.last().Text, "Chicken and rice bowl")
}

func TestProgressViewShowsBalance(t *testing.T) {
	env := newTestEnv(t)
	env.completeProfile(t)
	ctx := context.Background()

	env.bot.HandleUpdate(ctx, command("water"))
	env.bot.HandleUpdate(ctx, callback("water:500"))
	env.bot.HandleUpdate(ctx, command("progress"))

	last := env.transport.last().Text
	assert.Contains(t, last, "Today")
	assert.Contains(t, last, "500")
}
