package models

import "gorm.io/gorm"

type Reminder struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null"`
	Type    string `gorm:"size:16"` // meal/water/weight/custom
	Title   string
	Time    string `gorm:"size:5"`  // "HH:MM"
	Days    string `gorm:"size:32"` // "daily" or "mon,tue,..."
	Enabled bool   `gorm:"default:true"`
}
