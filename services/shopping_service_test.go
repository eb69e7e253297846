package services

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
)

func newShoppingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ShoppingList{}, &models.ShoppingItem{}))
	return db
}

func TestAddItemRequiresListOwnership(t *testing.T) {
	db := newShoppingTestDB(t)
	svc := NewShoppingService(db)

	owner := models.User{TelegramID: 1}
	stranger := models.User{TelegramID: 2}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&stranger).Error)

	list, err := svc.CreateList(owner.ID, "Groceries")
	require.NoError(t, err)

	// forged or stale list id from another chat
	_, err = svc.AddItem(stranger.ID, list.ID, "Milk", "", 2)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var count int64
	db.Model(&models.ShoppingItem{}).Count(&count)
	assert.Zero(t, count)

	_, err = svc.AddItem(owner.ID, list.ID, "Milk", "1 l", 1)
	require.NoError(t, err)
	db.Model(&models.ShoppingItem{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestToggleItemRequiresListOwnership(t *testing.T) {
	db := newShoppingTestDB(t)
	svc := NewShoppingService(db)

	owner := models.User{TelegramID: 1}
	stranger := models.User{TelegramID: 2}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&stranger).Error)

	list, err := svc.CreateList(owner.ID, "Groceries")
	require.NoError(t, err)
	item, err := svc.AddItem(owner.ID, list.ID, "Eggs", "", 1)
	require.NoError(t, err)

	_, err = svc.ToggleItem(stranger.ID, item.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var fresh models.ShoppingItem
	require.NoError(t, db.First(&fresh, item.ID).Error)
	assert.False(t, fresh.Checked)

	checked, err := svc.ToggleItem(owner.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, checked)
}
