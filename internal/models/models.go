package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rating is a maturity rating on a catalog game. Each rating maps to the
// minimum age a user must be before the game can enter their inventory.
type Rating string

const (
	RatingEveryone       Rating = "e"
	RatingEveryone10Plus Rating = "e10"
	RatingTeen           Rating = "t"
	RatingMature         Rating = "m"
	RatingAdultsOnly     Rating = "ao"
	RatingPending        Rating = "rp"
)

// RequiredAge returns the minimum age for the rating. Unknown ratings are
// treated like "rating pending" and carry no age requirement.
func (r Rating) RequiredAge() int {
	switch r {
	case RatingEveryone10Plus:
		return 10
	case RatingTeen:
		return 13
	case RatingMature:
		return 17
	case RatingAdultsOnly:
		return 18
	default:
		return 0
	}
}

// Valid reports whether r is one of the known ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingEveryone, RatingEveryone10Plus, RatingTeen, RatingMature, RatingAdultsOnly, RatingPending:
		return true
	}
	return false
}

// Game represents a catalog item
type Game struct {
	ID              int64           `json:"id" db:"game_id"`
	Name            string          `json:"name" db:"name"`
	Price           decimal.Decimal `json:"price" db:"price"`
	Rating          Rating          `json:"rating" db:"rating"`
	Description     string          `json:"description" db:"description"`
	Developer       string          `json:"developer" db:"developer"`
	Publisher       string          `json:"publisher" db:"publisher"`
	Recommendations int             `json:"recommendations" db:"recommendations"`
	ReleaseDate     time.Time       `json:"release_date" db:"release_date"`
	Metacritic      *int            `json:"metacritic,omitempty" db:"metacritic"`
	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
	Genres          []string        `json:"genres,omitempty"`
	Categories      []string        `json:"categories,omitempty"`
}

// DiscountedPrice returns price - price*discount, rounded to cents.
func (g *Game) DiscountedPrice() decimal.Decimal {
	return g.Price.Sub(g.Price.Mul(g.DiscountPercent)).Round(2)
}

func (g *Game) metacriticLabel() string {
	if g.Metacritic == nil {
		return "NA"
	}
	return fmt.Sprintf("%d/100", *g.Metacritic)
}

// Truncated returns the one-entry store-listing form of the game.
func (g *Game) Truncated() string {
	return fmt.Sprintf("[%d]\t%s\n\tDev: %s | Pub: %s | Released: %s | Rated: %s | Metacritic: %s\n\t$%s\n",
		g.ID, g.Name, g.Developer, g.Publisher, g.ReleaseDate.Format("2006-01-02"),
		strings.ToUpper(string(g.Rating)), g.metacriticLabel(), g.Price.StringFixed(2))
}

// Detailed returns the full product-page form of the game.
func (g *Game) Detailed() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\tTitle:\t\t%s\n", g.Name)
	fmt.Fprintf(&b, "\tDescription:\t%s\n", g.Description)
	fmt.Fprintf(&b, "\tDeveloper:\t%s\n", g.Developer)
	fmt.Fprintf(&b, "\tPublisher:\t%s\n", g.Publisher)
	fmt.Fprintf(&b, "\tRelease Date:\t%s\n", g.ReleaseDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "\tRated:\t\t%s\n", strings.ToUpper(string(g.Rating)))
	fmt.Fprintf(&b, "\tMetacritic:\t%s\n", g.metacriticLabel())
	fmt.Fprintf(&b, "\tPrice:\t\t$%s\n", g.Price.StringFixed(2))
	fmt.Fprintf(&b, "\tDiscount:\t%s%%\n", g.DiscountPercent.Mul(decimal.NewFromInt(100)).StringFixed(0))
	return b.String()
}

// Cart is a session-scoped list of games with a running total. It is owned by
// one logged-in user and is never persisted; its contents become order detail
// rows at checkout.
type Cart struct {
	Games []Game
	Total decimal.Decimal
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{Total: decimal.Zero}
}

// Add appends a game and grows the running total by its discounted price.
func (c *Cart) Add(game Game) {
	c.Games = append(c.Games, game)
	c.Total = c.Total.Add(game.DiscountedPrice())
}

// Empty clears the cart after a completed purchase.
func (c *Cart) Empty() {
	c.Games = nil
	c.Total = decimal.Zero
}

func (c *Cart) String() string {
	var b strings.Builder
	b.WriteString("\nYour cart:\n")
	for _, game := range c.Games {
		fmt.Fprintf(&b, "$%s\t%s\n", game.DiscountedPrice().StringFixed(2), game.Name)
	}
	b.WriteString(strings.Repeat("-", 15) + "\n")
	fmt.Fprintf(&b, "$%s\tTotal\n", c.Total.StringFixed(2))
	return b.String()
}

// User represents a registered account. The password hash never leaves the
// persistence layer; a User value in the rest of the program carries no
// credential material.
type User struct {
	ID          int64           `json:"id" db:"user_id"`
	Username    string          `json:"username" db:"username"`
	DateOfBirth time.Time       `json:"date_of_birth" db:"date_of_birth"`
	Wallet      decimal.Decimal `json:"wallet" db:"wallet"`
	Cart        *Cart           `json:"-"`
}

// WalletLine renders the wallet balance for the shell.
func (u *User) WalletLine() string {
	return fmt.Sprintf("$%s\tIn your wallet", u.Wallet.StringFixed(2))
}

// OrderKind distinguishes the two persisted order events.
type OrderKind string

const (
	OrderPurchase OrderKind = "purchase"
	OrderTopUp    OrderKind = "topup"
)

// Order is a persisted record of either a game purchase or a wallet top-up.
type Order struct {
	ID        int64           `json:"id" db:"order_id"`
	UserID    int64           `json:"user_id" db:"user_fk"`
	Kind      OrderKind       `json:"kind" db:"kind"`
	PlacedAt  time.Time       `json:"placed_at" db:"order_date"`
	TotalCost decimal.Decimal `json:"total_cost" db:"total_cost"`
	// Quantities maps game name to purchased count; empty for top-ups.
	Quantities map[string]int `json:"quantities,omitempty"`
}

func (o *Order) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d]\t%s\t$%s\t%s\n", o.ID, o.PlacedAt.Format("2006-01-02 15:04"), o.TotalCost.StringFixed(2), o.Kind)
	for name, qty := range o.Quantities {
		fmt.Fprintf(&b, "\t%dx %s\n", qty, name)
	}
	return b.String()
}

// OwnedGame is an inventory row joined with its game.
type OwnedGame struct {
	Game     Game `json:"game"`
	Quantity int  `json:"quantity" db:"quantity_in_inventory"`
}
