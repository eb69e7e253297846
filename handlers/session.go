package handlers

import (
	"sync"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
)

// Step identifies the position inside a conversation flow. The zero value
// means "no flow in progress".
type Step string

const (
	StepNone Step = ""

	StepProfileWeight   Step = "profile/weight"
	StepProfileHeight   Step = "profile/height"
	StepProfileAge      Step = "profile/age"
	StepProfileGender   Step = "profile/gender"
	StepProfileActivity Step = "profile/activity"
	StepProfileGoal     Step = "profile/goal"
	StepProfileCity     Step = "profile/city"

	StepFoodMealType   Step = "food/meal_type"
	StepFoodSearch     Step = "food/search"
	StepFoodSelect     Step = "food/select"
	StepFoodManualName Step = "food/manual_name"
	StepFoodWeight     Step = "food/weight"
	StepFoodConfirm    Step = "food/confirm"

	StepWaterAmount Step = "water/amount"

	StepWeightEntry Step = "weight/entry"

	StepActivitySource   Step = "activity/source"
	StepActivityType     Step = "activity/type"
	StepActivityDuration Step = "activity/duration"
	StepActivityDistance Step = "activity/distance"
	StepActivityCalories Step = "activity/calories"
	StepActivitySteps    Step = "activity/steps"
	StepActivityGPX      Step = "activity/gpx"
	StepActivityConfirm  Step = "activity/confirm"

	StepShoppingCreate  Step = "shopping/create"
	StepShoppingRename  Step = "shopping/rename"
	StepShoppingAddItem Step = "shopping/add_item"

	StepReminderType    Step = "reminder/type"
	StepReminderTitle   Step = "reminder/title"
	StepReminderTime    Step = "reminder/time"
	StepReminderDays    Step = "reminder/days"
	StepReminderConfirm Step = "reminder/confirm"

	StepRecipeIngredients Step = "recipe/ingredients"
	StepRecipeDiet        Step = "recipe/diet"
	StepRecipeDifficulty  Step = "recipe/difficulty"

	StepVoiceChoice Step = "voice/choice"
)

// Session is the per-user conversation state: the current step and the bag
// of already-validated values. Handlers must only mutate the bag after the
// input passed validation, so a failed step leaves everything untouched.
type Session struct {
	mu   sync.Mutex
	Step Step
	Data map[string]any
}

func (s *Session) Set(key string, value any) {
	if s.Data == nil {
		s.Data = map[string]any{}
	}
	s.Data[key] = value
}

func (s *Session) Clear() {
	s.Step = StepNone
	s.Data = nil
}

func (s *Session) String(key string) string {
	v, _ := s.Data[key].(string)
	return v
}

func (s *Session) Float(key string) float64 {
	switch v := s.Data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func (s *Session) Int(key string) int {
	switch v := s.Data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (s *Session) Foods(key string) []services.FoodProduct {
	v, _ := s.Data[key].([]services.FoodProduct)
	return v
}

func (s *Session) Uint(key string) uint {
	switch v := s.Data[key].(type) {
	case uint:
		return v
	case int:
		return uint(v)
	}
	return 0
}

// SessionStore keeps one session per telegram user. Sessions are volatile:
// a restart drops every in-flight conversation by design.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[int64]*Session{}}
}

func (st *SessionStore) Get(userID int64) *Session {
	st.mu.RLock()
	sess, ok := st.sessions[userID]
	st.mu.RUnlock()
	if ok {
		return sess
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, ok = st.sessions[userID]; ok {
		return sess
	}
	sess = &Session{}
	st.sessions[userID] = sess
	return sess
}

// StepOf snapshots the current step without holding the session for long.
// Used to detect stale results from slow external calls.
func (st *SessionStore) StepOf(userID int64) Step {
	sess := st.Get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.Step
}

// With runs fn while holding the user's session lock. All dialogue handling
// for one user is serialized through this.
func (st *SessionStore) With(userID int64, fn func(*Session)) {
	sess := st.Get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
}
