package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
)

type WaterService struct {
	db *gorm.DB
}

func NewWaterService(db *gorm.DB) *WaterService {
	return &WaterService{db: db}
}

func (s *WaterService) AddEntry(userID uint, amount float64) error {
	entry := models.WaterEntry{UserID: userID, Amount: amount, At: time.Now()}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&entry).Error
	})
}

// TodayTotal sums millilitres logged since local midnight.
func (s *WaterService) TodayTotal(userID uint) (float64, error) {
	start := dayStartLocal(time.Now())
	var total float64
	err := s.db.Model(&models.WaterEntry{}).
		Where("user_id = ? AND at >= ? AND at < ?", userID, start, start.Add(24*time.Hour)).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// DayTotal is one point of the weekly history.
type DayTotal struct {
	Day    time.Time
	Amount float64
}

// WeekTotals returns per-day sums for the last seven days, newest first.
// Days without entries are omitted.
func (s *WaterService) WeekTotals(userID uint) ([]DayTotal, error) {
	since := dayStartLocal(time.Now()).AddDate(0, 0, -6)
	var entries []models.WaterEntry
	err := s.db.
		Where("user_id = ? AND at >= ?", userID, since).
		Order("at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	byDay := map[time.Time]float64{}
	for _, e := range entries {
		byDay[dayStartLocal(e.At)] += e.Amount
	}

	var out []DayTotal
	for d := dayStartLocal(time.Now()); !d.Before(since); d = d.AddDate(0, 0, -1) {
		if amount, ok := byDay[d]; ok {
			out = append(out, DayTotal{Day: d, Amount: amount})
		}
	}
	return out, nil
}
