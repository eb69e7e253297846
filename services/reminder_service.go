package services

import (
	"gorm.io/gorm"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
)

type ReminderService struct {
	db *gorm.DB
}

func NewReminderService(db *gorm.DB) *ReminderService {
	return &ReminderService{db: db}
}

type ReminderInput struct {
	Type  string
	Title string
	Time  string // "HH:MM", validated by the dialogue step
	Days  string // "daily" or "mon,tue,..."
}

func (s *ReminderService) Create(userID uint, in ReminderInput) (*models.Reminder, error) {
	reminder := models.Reminder{
		UserID:  userID,
		Type:    in.Type,
		Title:   in.Title,
		Time:    in.Time,
		Days:    in.Days,
		Enabled: true,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&reminder).Error
	})
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (s *ReminderService) EnabledForUser(userID uint) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.
		Where("user_id = ? AND enabled = ?", userID, true).
		Order("time").
		Find(&reminders).Error
	return reminders, err
}

// AllEnabled feeds the dispatcher tick.
func (s *ReminderService) AllEnabled() ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.Where("enabled = ?", true).Find(&reminders).Error
	return reminders, err
}

func (s *ReminderService) Disable(userID, reminderID uint) error {
	return s.db.Model(&models.Reminder{}).
		Where("id = ? AND user_id = ?", reminderID, userID).
		Update("enabled", false).Error
}
