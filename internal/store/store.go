// Package store is the persistence boundary of the application. It executes
// parameterized SQL and deserializes rows into typed models; business rules
// live above it in the services. Absence is signaled with a nil result, never
// with a driver error.
package store

import (
	"context"
	"time"

	"github.com/mkarchuk/gamestore/internal/models"
	"github.com/shopspring/decimal"
)

// Store is the port the services depend on. The production implementation is
// MySQL; tests substitute an in-memory fake.
type Store interface {
	// Users
	InsertUser(ctx context.Context, username, passwordHash string, dateOfBirth time.Time) (int64, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// CredentialsByUsername returns the user together with the stored
	// password hash; it is the only operation that exposes the hash.
	CredentialsByUsername(ctx context.Context, username string) (*models.User, string, error)
	AllUsers(ctx context.Context) ([]models.User, error)
	UpdateUsername(ctx context.Context, current, updated string) (bool, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)

	// Catalog
	AllGames(ctx context.Context) ([]models.Game, error)
	GamesByReleaseDate(ctx context.Context) ([]models.Game, error)
	GameByID(ctx context.Context, id int64) (*models.Game, error)
	InsertGame(ctx context.Context, game *models.Game) (int64, error)
	// IsGameOfAge reports whether the game's rating requires at most the
	// given age. The ratings table is authoritative.
	IsGameOfAge(ctx context.Context, gameID int64, age int) (bool, error)

	// Orders and wallet. CreatePurchase and CreateTopUp each run as one
	// storage transaction: the order row, its detail rows, and the wallet
	// balance move together or not at all.
	CreatePurchase(ctx context.Context, userID int64, placedAt time.Time, total decimal.Decimal, quantities map[int64]int, newBalance decimal.Decimal) (int64, error)
	CreateTopUp(ctx context.Context, userID int64, placedAt time.Time, amount decimal.Decimal, newBalance decimal.Decimal) (int64, error)
	UpdateWallet(ctx context.Context, userID int64, balance decimal.Decimal) error

	// Inventory
	AddToInventory(ctx context.Context, userID int64, quantities map[int64]int) error
	UserInventory(ctx context.Context, userID int64) ([]models.OwnedGame, error)

	// History
	OrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	RecentOrders(ctx context.Context) ([]models.Order, error)
}
