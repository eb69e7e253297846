package models

import (
	"time"

	"gorm.io/gorm"
)

type Activity struct {
	gorm.Model
	UserID         uint   `gorm:"index;not null"`
	ActivityType   string `gorm:"size:24"` // walking/running/cycling/gym/...
	Duration       int    // minutes
	Distance       float64 // km
	CaloriesBurned float64
	Steps          int
	At             time.Time `gorm:"index"`
	Source         string    `gorm:"size:16"` // manual/gpx/device
}
