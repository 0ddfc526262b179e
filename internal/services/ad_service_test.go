package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/testutil"
)

func TestCreateAd_TagsRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ads := NewAdService(env.db)

	price := decimal.RequireFromString("1250.00")
	created, err := ads.CreateAd(testutil.Caller(env.seller), &CreateAdRequest{
		Title:       "  Retro Gaming  ",
		Platform:    models.PlatformYouTube,
		Price:       &price,
		Subscribers: 42000,
		Tags:        []string{" Gaming ", "", "Retro"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Retro Gaming", created.Title)

	stored, err := ads.GetAd(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"gaming", "retro"}, stored.Tags)
	assert.Equal(t, env.seller.ID, stored.Owner.ID)
	assert.True(t, price.Equal(stored.Price))
}
