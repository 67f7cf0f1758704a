package shell

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mkarchuk/gamestore/internal/models"
	"github.com/mkarchuk/gamestore/internal/services"
	"github.com/mkarchuk/gamestore/internal/store/storetest"
	"github.com/mkarchuk/gamestore/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runScript feeds the lines to a fresh shell and returns everything it wrote.
func runScript(t *testing.T, fake *storetest.Fake, lines ...string) string {
	t.Helper()
	cfg := &config.Config{AdminPassword: "secret", PageSize: 5}
	var out strings.Builder
	sh := New(cfg,
		services.NewAccountService(fake, nil),
		services.NewStorefrontService(fake, nil),
		services.NewPurchaseService(fake, nil),
		strings.NewReader(strings.Join(lines, "\n")+"\n"),
		&out,
	)
	sh.Run(context.Background())
	return out.String()
}

func TestUserSession(t *testing.T) {
	fake := storetest.NewFake()
	fake.AddGame(models.Game{
		Name:        "Solstice",
		Price:       decimal.RequireFromString("19.99"),
		Rating:      models.RatingTeen,
		Developer:   "Moonbeam",
		Publisher:   "Moonbeam",
		ReleaseDate: time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	adult := time.Now().AddDate(-30, 0, 0).Format("2006-01-02")

	out := runScript(t, fake,
		"u",
		"c", "alice", "hunter22", adult,
		"l", "alice", "hunter22",
		"w", "a", "25.00", "b",
		"b", "1", "a", "p", "b", "b",
		"i", "",
		"o",
		"l",
		"b",
		"q",
	)

	assert.Contains(t, out, "Account created!")
	assert.Contains(t, out, "Login successful!")
	assert.Contains(t, out, "Thank you for your purchase!")
	assert.Contains(t, out, "Purchase successful!")
	assert.Contains(t, out, "Solstice")

	user := fake.Users["alice"]
	require.NotNil(t, user)
	assert.True(t, user.Wallet.Equal(decimal.RequireFromString("5.01")),
		"wallet is %s", user.Wallet)
	assert.Equal(t, 1, fake.Inventory[user.ID][1])

	// One top-up and one purchase were persisted.
	require.Len(t, fake.Orders, 2)
	assert.Equal(t, models.OrderTopUp, fake.Orders[0].Kind)
	assert.Equal(t, models.OrderPurchase, fake.Orders[1].Kind)
}

func TestFailedPurchaseKeepsCart(t *testing.T) {
	fake := storetest.NewFake()
	fake.AddGame(models.Game{
		Name:   "Solstice",
		Price:  decimal.RequireFromString("19.99"),
		Rating: models.RatingTeen,
	})
	adult := time.Now().AddDate(-30, 0, 0).Format("2006-01-02")

	// No funds are ever added, so checkout must fail and persist nothing.
	out := runScript(t, fake,
		"u",
		"c", "alice", "hunter22", adult,
		"l", "alice", "hunter22",
		"b", "1", "a", "p", "b", "b",
		"l",
		"b",
		"q",
	)

	assert.Contains(t, out, "Purchase failed; your cart is unchanged.")
	assert.Empty(t, fake.Orders)
	assert.Empty(t, fake.Inventory)
}

func TestAdminSession(t *testing.T) {
	fake := storetest.NewFake()
	adult := time.Now().AddDate(-30, 0, 0).Format("2006-01-02")

	out := runScript(t, fake,
		"u", "c", "alice", "hunter22", adult, "b",
		"a", "secret",
		"u",
		"r", "alice", "alicia",
		"l",
		"q",
	)

	assert.Contains(t, out, "Success! Welcome, admin.")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "Username updated.")
	assert.NotNil(t, fake.Users["alicia"])
}

func TestAdminRejectsWrongPassword(t *testing.T) {
	out := runScript(t, storetest.NewFake(),
		"a", "not-the-password",
		"q",
	)
	assert.Contains(t, out, "Incorrect admin password.")
	assert.NotContains(t, out, "Welcome, admin.")
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"Indie", "Platformer"}, splitTags(" Indie , Platformer ,, "))
	assert.Nil(t, splitTags("   "))
}

func TestCenter(t *testing.T) {
	assert.Equal(t, "==abc==", center("abc", 7, '='))
	assert.Equal(t, "abcdef", center("abcdef", 4, '='))
}
