package models

import (
	"time"

	"gorm.io/gorm"
)

// One meal (breakfast/lunch/dinner/snack). Totals are written once at
// creation time as the sum of the owned FoodItem rows.
type Meal struct {
	gorm.Model
	UserID   uint      `gorm:"index;not null"`
	MealType string    `gorm:"size:16"`
	AteAt    time.Time `gorm:"index"`

	TotalCalories float64
	TotalProtein  float64
	TotalFat      float64
	TotalCarbs    float64

	PhotoFileID   string
	AIDescription string `gorm:"type:text"`

	Foods []FoodItem `gorm:"constraint:OnDelete:CASCADE"`
}

// FoodItem stores the nutrition snapshot for one portion inside a meal.
type FoodItem struct {
	gorm.Model
	MealID uint `gorm:"index;not null"`

	Name     string
	Weight   float64 // grams
	Calories float64
	Protein  float64
	Fat      float64
	Carbs    float64
	Barcode  string
}
