// Package testutil holds fixtures shared by the service, handler and
// integration tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tubetrade/dealdesk/internal/config"
	"github.com/tubetrade/dealdesk/internal/database"
	"github.com/tubetrade/dealdesk/internal/models"
)

const Password = "Passw0rd!"

// NewDB opens a migrated in-memory sqlite database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Initialize(config.DatabaseConfig{
		Driver:   "sqlite",
		Database: ":memory:",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	t.Cleanup(func() { database.Close(db) })
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		FullName: fmt.Sprintf("%s Tester", username),
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword(Password))
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateAdmin(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := CreateUser(t, db, username)
	require.NoError(t, db.Model(user).Update("is_admin", true).Error)
	user.IsAdmin = true
	return user
}

func CreateAd(t testing.TB, db *gorm.DB, owner *models.User, platform models.Platform) *models.Ad {
	t.Helper()

	ad := &models.Ad{
		UserID:      owner.ID,
		Title:       fmt.Sprintf("%s's gaming channel", owner.Username),
		Description: "Monetized channel with steady growth",
		Platform:    platform,
		Price:       decimal.NewFromInt(500),
		Subscribers: 120000,
		Tags:        models.StringList{"gaming", "monetized"},
		Status:      models.AdStatusActive,
	}
	require.NoError(t, db.Create(ad).Error)
	return ad
}

func CreateChat(t testing.TB, db *gorm.DB, ad *models.Ad, buyer *models.User) *models.Chat {
	t.Helper()

	chat := &models.Chat{AdID: ad.ID, BuyerID: buyer.ID, SellerID: ad.UserID}
	require.NoError(t, db.Create(chat).Error)
	return chat
}

func Caller(user *models.User) *models.Caller {
	role := models.RoleUser
	if user.IsAdmin {
		role = models.RoleAdmin
	}
	return &models.Caller{UserID: user.ID, Email: user.Email, Username: user.Username, Role: role}
}
