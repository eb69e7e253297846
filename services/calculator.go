package services

import "math"

// Nutrition target calculator. Everything here is pure arithmetic over the
// profile fields; persistence and conversation flow stay elsewhere.

const (
	GenderMale   = "male"
	GenderFemale = "female"

	ActivityLow    = "low"
	ActivityMedium = "medium"
	ActivityHigh   = "high"

	GoalLose     = "lose"
	GoalMaintain = "maintain"
	GoalGain     = "gain"
)

var activityMultipliers = map[string]float64{
	ActivityLow:    1.2,
	ActivityMedium: 1.55,
	ActivityHigh:   1.725,
}

var activityWaterBonus = map[string]float64{
	ActivityLow:    0,
	ActivityMedium: 500,
	ActivityHigh:   1000,
}

var goalAdjustments = map[string]float64{
	GoalLose:     -500,
	GoalMaintain: 0,
	GoalGain:     300,
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// BMR computes the basal metabolic rate via the Mifflin-St Jeor equation:
// 10*weight + 6.25*height - 5*age, +5 for men and -161 for women.
func BMR(weightKg, heightCm float64, age int, gender string) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if gender == GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return round1(bmr)
}

// TDEE scales BMR by the activity multiplier. Unknown levels fall back to
// the medium coefficient.
func TDEE(bmr float64, activityLevel string) float64 {
	mult, ok := activityMultipliers[activityLevel]
	if !ok {
		mult = activityMultipliers[ActivityMedium]
	}
	return round1(bmr * mult)
}

// MacroSplit is the protein/fat/carb percentage split for a goal. The three
// fractions always sum to 1.
type MacroSplit struct {
	Protein float64
	Fat     float64
	Carbs   float64
}

func macroSplitFor(goal string) MacroSplit {
	switch goal {
	case GoalLose:
		return MacroSplit{Protein: 0.30, Fat: 0.30, Carbs: 0.40}
	case GoalGain:
		return MacroSplit{Protein: 0.25, Fat: 0.25, Carbs: 0.50}
	default:
		return MacroSplit{Protein: 0.20, Fat: 0.30, Carbs: 0.50}
	}
}

func safeMinimumCalories(gender string) float64 {
	if gender == GenderFemale {
		return 1200
	}
	return 1500
}

// CalorieGoal derives the daily calorie target and macro gram amounts.
// The target is TDEE adjusted for the goal (-500 lose / +0 maintain /
// +300 gain), never below the safe minimum. Grams are converted via the
// 4/9/4 kcal-per-gram factors.
func CalorieGoal(weightKg, heightCm float64, age int, gender, activityLevel, goal string) (calories, proteinG, fatG, carbsG float64) {
	tdee := TDEE(BMR(weightKg, heightCm, age, gender), activityLevel)
	calories = tdee + goalAdjustments[goal]

	if min := safeMinimumCalories(gender); calories < min {
		calories = min
	}

	split := macroSplitFor(goal)
	proteinG = round1(calories * split.Protein / 4)
	fatG = round1(calories * split.Fat / 9)
	carbsG = round1(calories * split.Carbs / 4)
	return round1(calories), proteinG, fatG, carbsG
}

// WaterGoal is 30 ml per kg plus a flat activity bonus plus 200 ml for every
// 10 degrees above 20 C.
func WaterGoal(weightKg float64, activityLevel string, temperatureC float64) float64 {
	total := weightKg * 30
	total += activityWaterBonus[activityLevel]
	if temperatureC > 20 {
		total += (temperatureC - 20) / 10 * 200
	}
	return round1(total)
}

// Balance status tags around a +-100 kcal tolerance band.
const (
	BalanceDeficit = "deficit"
	BalanceOver    = "over"
	BalanceOnTrack = "on_track"
)

type Balance struct {
	Consumed  float64
	Burned    float64
	Goal      float64
	Balance   float64 // consumed - burned
	Remaining float64 // goal - balance
	Status    string
}

// CalorieBalance summarizes a day against the calorie goal.
func CalorieBalance(consumed, burned, goal float64) Balance {
	balance := consumed - burned
	remaining := goal - balance

	status := BalanceOnTrack
	switch {
	case remaining > 100:
		status = BalanceDeficit
	case remaining < -100:
		status = BalanceOver
	}

	return Balance{
		Consumed:  round1(consumed),
		Burned:    round1(burned),
		Goal:      round1(goal),
		Balance:   round1(balance),
		Remaining: round1(remaining),
		Status:    status,
	}
}
