package models

import (
	"time"

	"gorm.io/gorm"
)

// WaterEntry is an append-only record of consumed water in millilitres.
type WaterEntry struct {
	gorm.Model
	UserID uint      `gorm:"index;not null"`
	Amount float64   // ml
	At     time.Time `gorm:"index"`
}

// WeightEntry is an append-only weight history point in kilograms.
type WeightEntry struct {
	gorm.Model
	UserID uint      `gorm:"index;not null"`
	Weight float64   // kg
	At     time.Time `gorm:"index"`
}
