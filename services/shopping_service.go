package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
)

type ShoppingService struct {
	db *gorm.DB
}

func NewShoppingService(db *gorm.DB) *ShoppingService {
	return &ShoppingService{db: db}
}

func (s *ShoppingService) CreateList(userID uint, name string) (*models.ShoppingList, error) {
	list := models.ShoppingList{UserID: userID, Name: name}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&list).Error
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// ActiveLists excludes archived lists; they stay in the table for history.
func (s *ShoppingService) ActiveLists(userID uint) ([]models.ShoppingList, error) {
	var lists []models.ShoppingList
	err := s.db.
		Where("user_id = ? AND archived = ?", userID, false).
		Order("created_at DESC").
		Find(&lists).Error
	return lists, err
}

func (s *ShoppingService) GetList(userID, listID uint) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := s.db.
		Preload("Items").
		Where("id = ? AND user_id = ?", listID, userID).
		First(&list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *ShoppingService) RenameList(userID, listID uint, name string) error {
	return s.db.Model(&models.ShoppingList{}).
		Where("id = ? AND user_id = ?", listID, userID).
		Update("name", name).Error
}

func (s *ShoppingService) ArchiveList(userID, listID uint) error {
	return s.db.Model(&models.ShoppingList{}).
		Where("id = ? AND user_id = ?", listID, userID).
		Update("archived", true).Error
}

// AddItem appends an item to a list after checking the list belongs to the
// user. Callback data can be forged or stale, so every item write re-checks
// ownership.
func (s *ShoppingService) AddItem(userID, listID uint, name, quantity string, addedBy int64) (*models.ShoppingItem, error) {
	item := models.ShoppingItem{ListID: listID, Name: name, Quantity: quantity, AddedBy: addedBy}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ShoppingList{}).
			Where("id = ? AND user_id = ?", listID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ToggleItem flips the checked flag on an item in one of the user's lists
// and returns the new state.
func (s *ShoppingService) ToggleItem(userID, itemID uint) (bool, error) {
	var item models.ShoppingItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Joins("JOIN shopping_lists ON shopping_lists.id = shopping_items.list_id").
			Where("shopping_items.id = ? AND shopping_lists.user_id = ?", itemID, userID).
			First(&item).Error
		if err != nil {
			return err
		}
		item.Checked = !item.Checked
		return tx.Save(&item).Error
	})
	return item.Checked, err
}
