package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thriftshop/storefront/internal/app/model"
	"gorm.io/gorm"
)

func TestUserRepository_Create(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{
			name:    "Valid user",
			user:    &model.User{Email: "ada@example.com", PasswordHash: "h", Name: "Ada", Role: model.RoleUser},
			wantErr: false,
		},
		{
			name:    "Duplicate email",
			user:    &model.User{Email: "ada@example.com", PasswordHash: "h", Name: "Other", Role: model.RoleUser},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotZero(t, tt.user.ID)
		})
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)
	user := createUser(t, testDB, "grace@example.com")

	found, err := repo.FindByEmail("Grace@Example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail("nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_FindByIDAndUpdate(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)
	user := createUser(t, testDB, "lin@example.com")

	user.Name = "Lin Renamed"
	require.NoError(t, repo.Update(user))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lin Renamed", found.Name)

	_, err = repo.FindByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
