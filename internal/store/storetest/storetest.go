// Package storetest provides an in-memory Store for service and shell tests.
// It records mutation calls so tests can assert that rejected operations never
// reached persistence.
package storetest

import (
	"context"
	"errors"
	"time"

	"github.com/mkarchuk/gamestore/internal/models"
	"github.com/mkarchuk/gamestore/internal/store"
	"github.com/shopspring/decimal"
)

var _ store.Store = (*Fake)(nil)

// Fake implements store.Store in memory.
type Fake struct {
	nextID int64

	Users  map[string]*models.User // by username
	Hashes map[string]string       // username -> password hash
	Games  []models.Game
	// RequiredAge holds the minimum age per game id; missing ids need no age.
	RequiredAge map[int64]int

	Orders    []models.Order
	Inventory map[int64]map[int64]int // userID -> gameID -> qty

	InsertUserCalls     int
	DeleteUserCalls     int
	CreatePurchaseCalls int
	CreateTopUpCalls    int
	UpdateWalletCalls   int
	AddInventoryCalls   int

	FailCreatePurchase bool
	FailUpdateWallet   bool
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		Users:       make(map[string]*models.User),
		Hashes:      make(map[string]string),
		RequiredAge: make(map[int64]int),
		Inventory:   make(map[int64]map[int64]int),
	}
}

// AddGame seeds a catalog game and returns it.
func (f *Fake) AddGame(game models.Game) models.Game {
	f.nextID++
	game.ID = f.nextID
	f.Games = append(f.Games, game)
	f.RequiredAge[game.ID] = game.Rating.RequiredAge()
	return game
}

func (f *Fake) InsertUser(_ context.Context, username, passwordHash string, dateOfBirth time.Time) (int64, error) {
	f.InsertUserCalls++
	if _, ok := f.Users[username]; ok {
		return 0, errors.New("duplicate entry")
	}
	f.nextID++
	f.Users[username] = &models.User{
		ID:          f.nextID,
		Username:    username,
		DateOfBirth: dateOfBirth,
		Wallet:      decimal.Zero,
	}
	f.Hashes[username] = passwordHash
	return f.nextID, nil
}

func (f *Fake) UserByID(_ context.Context, id int64) (*models.User, error) {
	for _, user := range f.Users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *Fake) UserByUsername(_ context.Context, username string) (*models.User, error) {
	user, ok := f.Users[username]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *Fake) CredentialsByUsername(_ context.Context, username string) (*models.User, string, error) {
	user, ok := f.Users[username]
	if !ok {
		return nil, "", nil
	}
	copied := *user
	return &copied, f.Hashes[username], nil
}

func (f *Fake) AllUsers(context.Context) ([]models.User, error) {
	var users []models.User
	for _, user := range f.Users {
		users = append(users, *user)
	}
	return users, nil
}

func (f *Fake) UpdateUsername(_ context.Context, current, updated string) (bool, error) {
	user, ok := f.Users[current]
	if !ok {
		return false, nil
	}
	delete(f.Users, current)
	user.Username = updated
	f.Users[updated] = user
	f.Hashes[updated] = f.Hashes[current]
	delete(f.Hashes, current)
	return true, nil
}

func (f *Fake) DeleteUser(_ context.Context, id int64) (bool, error) {
	f.DeleteUserCalls++
	for username, user := range f.Users {
		if user.ID == id {
			delete(f.Users, username)
			delete(f.Hashes, username)
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) AllGames(context.Context) ([]models.Game, error) {
	return append([]models.Game(nil), f.Games...), nil
}

func (f *Fake) GamesByReleaseDate(ctx context.Context) ([]models.Game, error) {
	return f.AllGames(ctx)
}

func (f *Fake) GameByID(_ context.Context, id int64) (*models.Game, error) {
	for i := range f.Games {
		if f.Games[i].ID == id {
			copied := f.Games[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *Fake) InsertGame(_ context.Context, game *models.Game) (int64, error) {
	seeded := f.AddGame(*game)
	game.ID = seeded.ID
	return seeded.ID, nil
}

func (f *Fake) IsGameOfAge(_ context.Context, gameID int64, age int) (bool, error) {
	return age >= f.RequiredAge[gameID], nil
}

func (f *Fake) CreatePurchase(_ context.Context, userID int64, placedAt time.Time, total decimal.Decimal, quantities map[int64]int, newBalance decimal.Decimal) (int64, error) {
	f.CreatePurchaseCalls++
	if f.FailCreatePurchase {
		return 0, errors.New("storage unavailable")
	}
	f.nextID++
	names := make(map[string]int, len(quantities))
	for gameID, qty := range quantities {
		names[f.gameName(gameID)] = qty
	}
	f.Orders = append(f.Orders, models.Order{
		ID: f.nextID, UserID: userID, Kind: models.OrderPurchase,
		PlacedAt: placedAt, TotalCost: total, Quantities: names,
	})
	f.setWallet(userID, newBalance)
	return f.nextID, nil
}

func (f *Fake) CreateTopUp(_ context.Context, userID int64, placedAt time.Time, amount decimal.Decimal, newBalance decimal.Decimal) (int64, error) {
	f.CreateTopUpCalls++
	f.nextID++
	f.Orders = append(f.Orders, models.Order{
		ID: f.nextID, UserID: userID, Kind: models.OrderTopUp,
		PlacedAt: placedAt, TotalCost: amount,
	})
	f.setWallet(userID, newBalance)
	return f.nextID, nil
}

func (f *Fake) UpdateWallet(_ context.Context, userID int64, balance decimal.Decimal) error {
	f.UpdateWalletCalls++
	if f.FailUpdateWallet {
		return errors.New("storage unavailable")
	}
	f.setWallet(userID, balance)
	return nil
}

func (f *Fake) AddToInventory(_ context.Context, userID int64, quantities map[int64]int) error {
	f.AddInventoryCalls++
	owned := f.Inventory[userID]
	if owned == nil {
		owned = make(map[int64]int)
		f.Inventory[userID] = owned
	}
	for gameID, qty := range quantities {
		owned[gameID] += qty
	}
	return nil
}

func (f *Fake) UserInventory(_ context.Context, userID int64) ([]models.OwnedGame, error) {
	var owned []models.OwnedGame
	for gameID, qty := range f.Inventory[userID] {
		for i := range f.Games {
			if f.Games[i].ID == gameID {
				owned = append(owned, models.OwnedGame{Game: f.Games[i], Quantity: qty})
			}
		}
	}
	return owned, nil
}

func (f *Fake) OrdersByUser(_ context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range f.Orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (f *Fake) RecentOrders(context.Context) ([]models.Order, error) {
	return append([]models.Order(nil), f.Orders...), nil
}

func (f *Fake) setWallet(userID int64, balance decimal.Decimal) {
	for _, user := range f.Users {
		if user.ID == userID {
			user.Wallet = balance
		}
	}
}

func (f *Fake) gameName(id int64) string {
	for i := range f.Games {
		if f.Games[i].ID == id {
			return f.Games[i].Name
		}
	}
	return "unknown"
}
