// Package api exposes a read-only HTTP view of the storefront: catalog,
// users, and order history. All writes go through the interactive shell.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mkarchuk/gamestore/internal/metrics"
	"github.com/mkarchuk/gamestore/internal/middleware"
	"github.com/mkarchuk/gamestore/internal/services"
	"github.com/mkarchuk/gamestore/pkg/config"
)

// App holds application dependencies
type App struct {
	config     *config.Config
	metrics    *metrics.AppMetrics
	accounts   *services.AccountService
	storefront *services.StorefrontService
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, m *metrics.AppMetrics, accounts *services.AccountService, storefront *services.StorefrontService) *App {
	return &App{
		config:     cfg,
		metrics:    m,
		accounts:   accounts,
		storefront: storefront,
	}
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RecoverMiddleware)
	r.Use(middleware.MetricsMiddleware(a.metrics))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/games", a.ListGamesHandler).Methods("GET")
	api.HandleFunc("/games/{id}", a.GetGameHandler).Methods("GET")
	api.HandleFunc("/orders", a.ListOrdersHandler).Methods("GET")
	api.HandleFunc("/users", a.ListUsersHandler).Methods("GET")

	r.HandleFunc("/health", a.HealthHandler).Methods("GET")
}

// HealthHandler handles health check requests
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy"})
}

// ListGamesHandler handles GET /api/v1/games
func (a *App) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	games := a.storefront.AllGames(r.Context())
	if r.URL.Query().Get("sort") == "release_date" {
		games = a.storefront.GamesByReleaseDate(r.Context())
	}
	writeJSON(w, games)
}

// GetGameHandler handles GET /api/v1/games/{id}
func (a *App) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}

	game := a.storefront.GameByID(r.Context(), id)
	if game == nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	writeJSON(w, game)
}

// ListOrdersHandler handles GET /api/v1/orders, optionally filtered by user
func (a *App) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	if uid := r.URL.Query().Get("user_id"); uid != "" {
		userID, err := strconv.ParseInt(uid, 10, 64)
		if err != nil {
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}
		writeJSON(w, a.storefront.OrdersByUser(r.Context(), userID))
		return
	}
	writeJSON(w, a.storefront.RecentOrders(r.Context()))
}

// ListUsersHandler handles GET /api/v1/users
func (a *App) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.accounts.ListUsers(r.Context()))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
