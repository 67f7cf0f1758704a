package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkarchuk/gamestore/internal/metrics"
	"github.com/mkarchuk/gamestore/internal/models"
	"github.com/mkarchuk/gamestore/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StorefrontService handles catalog browsing, order history, and catalog
// administration.
type StorefrontService struct {
	store   store.Store
	metrics *metrics.AppMetrics
}

// NewStorefrontService creates a new storefront service
func NewStorefrontService(st store.Store, m *metrics.AppMetrics) *StorefrontService {
	return &StorefrontService{
		store:   st,
		metrics: m,
	}
}

// AllGames returns the full catalog.
func (s *StorefrontService) AllGames(ctx context.Context) []models.Game {
	games, err := s.store.AllGames(ctx)
	if err != nil {
		report("CATALOG", err)
		return nil
	}
	return games
}

// GamesByReleaseDate returns the catalog with the newest releases first.
func (s *StorefrontService) GamesByReleaseDate(ctx context.Context) []models.Game {
	games, err := s.store.GamesByReleaseDate(ctx)
	if err != nil {
		report("CATALOG", err)
		return nil
	}
	return games
}

// GameByID returns a single game, or nil when it does not exist.
func (s *StorefrontService) GameByID(ctx context.Context, id int64) *models.Game {
	game, err := s.store.GameByID(ctx, id)
	if err != nil {
		report("CATALOG", err)
		return nil
	}
	if game == nil {
		return nil
	}

	if s.metrics != nil {
		attrs := s.metrics.WithServiceName([]attribute.KeyValue{
			attribute.Int64("game_id", game.ID),
			attribute.String("rating", string(game.Rating)),
		})
		s.metrics.GamesViewed.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	return game
}

// AddGame inserts a new catalog entry with its genre and category tags.
func (s *StorefrontService) AddGame(ctx context.Context, game *models.Game) bool {
	if strings.TrimSpace(game.Name) == "" {
		report("CATALOG", fmt.Errorf("%w: game name must not be empty", ErrValidation))
		return false
	}
	if game.Price.IsNegative() {
		report("CATALOG", fmt.Errorf("%w: price must not be negative", ErrValidation))
		return false
	}
	if !game.Rating.Valid() {
		report("CATALOG", fmt.Errorf("%w: unknown rating %q", ErrValidation, game.Rating))
		return false
	}

	id, err := s.store.InsertGame(ctx, game)
	if err != nil {
		report("CATALOG", err)
		return false
	}
	game.ID = id
	return true
}

// UserInventory returns the games the user owns with quantities.
func (s *StorefrontService) UserInventory(ctx context.Context, user *models.User) []models.OwnedGame {
	owned, err := s.store.UserInventory(ctx, user.ID)
	if err != nil {
		report("INVENTORY", err)
		return nil
	}
	return owned
}

// OrdersByUser returns the user's order history, most recent first.
func (s *StorefrontService) OrdersByUser(ctx context.Context, userID int64) []models.Order {
	orders, err := s.store.OrdersByUser(ctx, userID)
	if err != nil {
		report("ORDERS", err)
		return nil
	}
	return orders
}

// RecentOrders returns all orders for the admin view, most recent first.
func (s *StorefrontService) RecentOrders(ctx context.Context) []models.Order {
	orders, err := s.store.RecentOrders(ctx)
	if err != nil {
		report("ORDERS", err)
		return nil
	}
	return orders
}
