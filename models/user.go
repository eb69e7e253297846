package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	TelegramID int64  `gorm:"uniqueIndex;not null"`
	Username   string
	FirstName  string

	Weight        float64
	Height        float64
	Age           int
	Gender        string // male/female
	ActivityLevel string // low/medium/high
	Goal          string // lose/maintain/gain
	City          string

	DailyCalorieGoal float64
	DailyProteinGoal float64
	DailyFatGoal     float64
	DailyCarbsGoal   float64
	DailyWaterGoal   float64

	ReminderEnabled bool `gorm:"default:true"`

	Meals         []Meal         `gorm:"constraint:OnDelete:CASCADE"`
	WaterEntries  []WaterEntry   `gorm:"constraint:OnDelete:CASCADE"`
	WeightEntries []WeightEntry  `gorm:"constraint:OnDelete:CASCADE"`
	ShoppingLists []ShoppingList `gorm:"constraint:OnDelete:CASCADE"`
	Reminders     []Reminder     `gorm:"constraint:OnDelete:CASCADE"`
	Activities    []Activity     `gorm:"constraint:OnDelete:CASCADE"`
}

// ProfileComplete reports whether every field required to compute daily
// targets has been set. Logging flows are gated on this.
func (u *User) ProfileComplete() bool {
	return u.Weight > 0 && u.Height > 0 && u.Age > 0 &&
		u.Gender != "" && u.ActivityLevel != "" && u.Goal != ""
}
