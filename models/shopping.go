package models

import "gorm.io/gorm"

// ShoppingList is archived instead of deleted so history survives.
type ShoppingList struct {
	gorm.Model
	UserID   uint   `gorm:"index;not null"`
	Name     string `gorm:"not null"`
	Archived bool   `gorm:"default:false"`

	Items []ShoppingItem `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE"`
}

type ShoppingItem struct {
	gorm.Model
	ListID   uint `gorm:"index;not null"`
	Name     string
	Quantity string // free text, e.g. "2 kg"
	Checked  bool   `gorm:"default:false"`
	AddedBy  int64  // telegram id of the user who added the item
}
