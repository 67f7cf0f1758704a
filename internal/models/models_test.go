package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRatingRequiredAge(t *testing.T) {
	tests := []struct {
		rating Rating
		want   int
	}{
		{RatingEveryone, 0},
		{RatingEveryone10Plus, 10},
		{RatingTeen, 13},
		{RatingMature, 17},
		{RatingAdultsOnly, 18},
		{RatingPending, 0},
		{Rating("zz"), 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.rating.RequiredAge(), "rating %q", tc.rating)
	}
}

func TestRatingValid(t *testing.T) {
	for _, r := range []Rating{RatingEveryone, RatingEveryone10Plus, RatingTeen, RatingMature, RatingAdultsOnly, RatingPending} {
		assert.True(t, r.Valid(), "rating %q", r)
	}
	assert.False(t, Rating("").Valid())
	assert.False(t, Rating("E").Valid())
}

func TestDiscountedPrice(t *testing.T) {
	game := Game{Price: decimal.RequireFromString("19.99")}
	assert.True(t, game.DiscountedPrice().Equal(decimal.RequireFromString("19.99")))

	game.DiscountPercent = decimal.RequireFromString("0.25")
	assert.True(t, game.DiscountedPrice().Equal(decimal.RequireFromString("14.99")),
		"got %s", game.DiscountedPrice())

	game.DiscountPercent = decimal.NewFromInt(1)
	assert.True(t, game.DiscountedPrice().IsZero())
}

func TestCart(t *testing.T) {
	cart := NewCart()
	assert.Empty(t, cart.Games)
	assert.True(t, cart.Total.IsZero())

	discounted := Game{Name: "Solstice", Price: decimal.RequireFromString("19.99"),
		DiscountPercent: decimal.RequireFromString("0.25")}
	cart.Add(discounted)
	cart.Add(Game{Name: "Brinewood", Price: decimal.RequireFromString("10.00")})

	// The total grows by discounted prices, not list prices.
	assert.Len(t, cart.Games, 2)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("24.99")), "total is %s", cart.Total)

	cart.Empty()
	assert.Empty(t, cart.Games)
	assert.True(t, cart.Total.IsZero())
}
