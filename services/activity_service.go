package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
)

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

type ActivityInput struct {
	ActivityType   string
	Duration       int
	Distance       float64
	CaloriesBurned float64
	Steps          int
	Source         string
}

func (s *ActivityService) Add(userID uint, in ActivityInput) error {
	activity := models.Activity{
		UserID:         userID,
		ActivityType:   in.ActivityType,
		Duration:       in.Duration,
		Distance:       in.Distance,
		CaloriesBurned: in.CaloriesBurned,
		Steps:          in.Steps,
		At:             time.Now(),
		Source:         in.Source,
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&activity).Error
	})
}

// TodayBurned sums calories burned since local midnight.
func (s *ActivityService) TodayBurned(userID uint) (float64, error) {
	start := dayStartLocal(time.Now())
	var total float64
	err := s.db.Model(&models.Activity{}).
		Where("user_id = ? AND at >= ? AND at < ?", userID, start, start.Add(24*time.Hour)).
		Select("COALESCE(SUM(calories_burned), 0)").
		Scan(&total).Error
	return total, err
}

// DaySummary aggregates today's workouts for the summary view.
type DaySummary struct {
	Duration int
	Distance float64
	Calories float64
}

func (s *ActivityService) TodaySummary(userID uint) (*DaySummary, error) {
	start := dayStartLocal(time.Now())
	var sum DaySummary
	err := s.db.Model(&models.Activity{}).
		Where("user_id = ? AND at >= ? AND at < ?", userID, start, start.Add(24*time.Hour)).
		Select("COALESCE(SUM(duration), 0) AS duration, COALESCE(SUM(distance), 0) AS distance, COALESCE(SUM(calories_burned), 0) AS calories").
		Scan(&sum).Error
	if err != nil {
		return nil, err
	}
	if sum.Duration == 0 && sum.Calories == 0 {
		return nil, nil
	}
	return &sum, nil
}
