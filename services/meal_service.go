package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
)

type MealService struct {
	db *gorm.DB
}

func NewMealService(db *gorm.DB) *MealService {
	return &MealService{db: db}
}

// FoodPortion is one confirmed food item scaled to the eaten weight.
type FoodPortion struct {
	Name     string
	Weight   float64
	Calories float64
	Protein  float64
	Fat      float64
	Carbs    float64
	Barcode  string
}

// AddMeal persists the meal and its items in one transaction. Totals are the
// sum of the item rows; nothing recomputes them later.
func (s *MealService) AddMeal(userID uint, mealType, aiDescription, photoFileID string, portions []FoodPortion) (*models.Meal, error) {
	meal := models.Meal{
		UserID:        userID,
		MealType:      mealType,
		AteAt:         time.Now(),
		AIDescription: aiDescription,
		PhotoFileID:   photoFileID,
	}
	for _, p := range portions {
		meal.TotalCalories += p.Calories
		meal.TotalProtein += p.Protein
		meal.TotalFat += p.Fat
		meal.TotalCarbs += p.Carbs
		meal.Foods = append(meal.Foods, models.FoodItem{
			Name:     p.Name,
			Weight:   p.Weight,
			Calories: p.Calories,
			Protein:  p.Protein,
			Fat:      p.Fat,
			Carbs:    p.Carbs,
			Barcode:  p.Barcode,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&meal).Error
	})
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// TodayConsumed sums calories over meals eaten today (local time).
func (s *MealService) TodayConsumed(userID uint) (float64, error) {
	start := dayStartLocal(time.Now())
	var total float64
	err := s.db.Model(&models.Meal{}).
		Where("user_id = ? AND ate_at >= ? AND ate_at < ?", userID, start, start.Add(24*time.Hour)).
		Select("COALESCE(SUM(total_calories), 0)").
		Scan(&total).Error
	return total, err
}

func (s *MealService) ListMealsByDateRange(userID uint, from, to time.Time) ([]models.Meal, error) {
	var meals []models.Meal
	err := s.db.
		Preload("Foods").
		Where("user_id = ? AND ate_at >= ? AND ate_at < ?", userID, from, to).
		Order("ate_at DESC").
		Find(&meals).Error
	return meals, err
}
