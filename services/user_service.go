package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func dayStartLocal(t time.Time) time.Time {
	tt := t.In(time.Local)
	return time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, time.Local)
}

// ByTelegramID returns (nil, nil) when the user has never completed a
// profile, which gates every logging flow.
func (s *UserService) ByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfileInput carries one validated profile-setup bag.
type ProfileInput struct {
	TelegramID    int64
	Username      string
	FirstName     string
	Weight        float64
	Height        float64
	Age           int
	Gender        string
	ActivityLevel string
	Goal          string
	City          string
	Temperature   float64 // already resolved by the weather adapter
}

// SaveProfile creates or updates the user and recomputes every daily target
// in one transaction. Re-running with identical inputs yields identical
// targets (the formulas are deterministic).
func (s *UserService) SaveProfile(in ProfileInput) (*models.User, error) {
	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("telegram_id = ?", in.TelegramID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{TelegramID: in.TelegramID}
		} else if err != nil {
			return err
		}

		user.Username = in.Username
		user.FirstName = in.FirstName
		user.Weight = in.Weight
		user.Height = in.Height
		user.Age = in.Age
		user.Gender = in.Gender
		user.ActivityLevel = in.ActivityLevel
		user.Goal = in.Goal
		user.City = in.City
		applyTargets(&user, in.Temperature)

		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LogWeight appends a history entry, updates the current weight, and
// recomputes targets with the given temperature.
func (s *UserService) LogWeight(telegramID int64, weight, temperature float64) (*models.User, error) {
	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
			return err
		}
		entry := models.WeightEntry{UserID: user.ID, Weight: weight, At: time.Now()}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		user.Weight = weight
		applyTargets(&user, temperature)
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByID looks a user up by primary key, used by the reminder dispatcher to
// resolve the chat to notify.
func (s *UserService) ByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RecentWeights returns the latest weight entries, newest first.
func (s *UserService) RecentWeights(userID uint, limit int) ([]models.WeightEntry, error) {
	var entries []models.WeightEntry
	err := s.db.
		Where("user_id = ?", userID).
		Order("at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func applyTargets(user *models.User, temperature float64) {
	cal, protein, fat, carbs := CalorieGoal(
		user.Weight, user.Height, user.Age,
		user.Gender, user.ActivityLevel, user.Goal,
	)
	user.DailyCalorieGoal = cal
	user.DailyProteinGoal = protein
	user.DailyFatGoal = fat
	user.DailyCarbsGoal = carbs
	user.DailyWaterGoal = WaterGoal(user.Weight, user.ActivityLevel, temperature)
}
