package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thriftshop/storefront/internal/app/model"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository, *model.User, *model.Product) {
	testDB := setupTestDB(t)
	user := createUser(t, testDB, "cart@example.com")
	product := createProduct(t, testDB, model.Product{Title: "Flannel Shirt", Price: 18.5, Quantity: 3, IsAvailable: true})
	return testDB, NewCartRepository(testDB), user, product
}

func TestCartRepository_CreateAndFind(t *testing.T) {
	_, repo, user, product := setupCartTest(t)

	item := &model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, repo.Create(item))
	assert.NotZero(t, item.ID)

	items, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Flannel Shirt", items[0].Product.Title)

	found, err := repo.FindByUserAndProduct(user.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	_, err = repo.FindByUserAndProduct(user.ID, product.ID+100)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_OneLinePerProduct(t *testing.T) {
	_, repo, user, product := setupCartTest(t)

	require.NoError(t, repo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}))
	assert.Error(t, repo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}))
}

func TestCartRepository_UpdateDeleteClear(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	other := createProduct(t, testDB, model.Product{Title: "Band Tee", Price: 30, Quantity: 1, IsAvailable: true})

	item := &model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}
	require.NoError(t, repo.Create(item))
	require.NoError(t, repo.Create(&model.CartItem{UserID: user.ID, ProductID: other.ID, Quantity: 1}))

	item.Quantity = 3
	require.NoError(t, repo.Update(item))
	found, err := repo.FindByID(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Quantity)

	require.NoError(t, repo.Delete(item.ID))
	items, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.DeleteByUserID(user.ID))
	items, err = repo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRepository_FindUserIDsByProduct(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	second := createUser(t, testDB, "second@example.com")

	require.NoError(t, repo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}))
	require.NoError(t, repo.Create(&model.CartItem{UserID: second.ID, ProductID: product.ID, Quantity: 1}))

	ids, err := repo.FindUserIDsByProduct(product.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{user.ID, second.ID}, ids)
}

func TestCartRepository_IdleCartsAndReminderStage(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	fresh := createUser(t, testDB, "fresh@example.com")

	require.NoError(t, repo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}))
	require.NoError(t, repo.Create(&model.CartItem{UserID: fresh.ID, ProductID: product.ID, Quantity: 1}))

	now := time.Now()
	require.NoError(t, testDB.Model(&model.CartItem{}).Where("user_id = ?", user.ID).
		UpdateColumn("updated_at", now.Add(-2*time.Hour)).Error)

	ids, err := repo.FindIdleUserIDs(now.Add(-time.Hour), model.ReminderOneHour)
	require.NoError(t, err)
	assert.Equal(t, []uint{user.ID}, ids)

	require.NoError(t, repo.SetReminderStage(user.ID, model.ReminderOneHour))

	ids, err = repo.FindIdleUserIDs(now.Add(-time.Hour), model.ReminderOneHour)
	require.NoError(t, err)
	assert.Empty(t, ids)

	var item model.CartItem
	require.NoError(t, testDB.Where("user_id = ?", user.ID).First(&item).Error)
	assert.True(t, item.UpdatedAt.Before(now.Add(-time.Hour)))
	assert.Equal(t, model.ReminderOneHour, item.ReminderStage)

	item.Quantity = 2
	require.NoError(t, repo.Update(&item))

	var reloaded model.CartItem
	require.NoError(t, testDB.First(&reloaded, item.ID).Error)
	assert.Equal(t, model.ReminderNone, reloaded.ReminderStage)
}
