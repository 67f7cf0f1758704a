package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/mkarchuk/gamestore/internal/db"
	"github.com/mkarchuk/gamestore/internal/metrics"
	"github.com/mkarchuk/gamestore/internal/models"
	"github.com/shopspring/decimal"
)

// MySQL implements Store over the instrumented database handle.
type MySQL struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewMySQL creates the MySQL-backed store.
func NewMySQL(database *db.DB, m *metrics.AppMetrics) *MySQL {
	return &MySQL{
		db:      database,
		metrics: m,
	}
}

func (s *MySQL) record(ctx context.Context, operation, table, statement string, start time.Time, success bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordDBQuery(ctx, operation, table, statement, start, success)
}

// InsertUser inserts a new user row and returns its id.
func (s *MySQL) InsertUser(ctx context.Context, username, passwordHash string, dateOfBirth time.Time) (int64, error) {
	start := time.Now()

	query := "INSERT INTO users (username, password, date_of_birth) VALUES (?, ?, ?)"
	result, err := s.db.ExecContext(ctx, query, username, passwordHash, dateOfBirth)
	s.record(ctx, "INSERT", "users", query, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get user ID: %w", err)
	}
	return id, nil
}

func (s *MySQL) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.DateOfBirth, &user.Wallet)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserByID returns the user with the given id, or nil when absent.
func (s *MySQL) UserByID(ctx context.Context, id int64) (*models.User, error) {
	start := time.Now()

	query := "SELECT user_id, username, date_of_birth, wallet FROM users WHERE user_id = ?"
	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, id))
	s.record(ctx, "SELECT", "users", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UserByUsername returns the user with the given username, or nil when absent.
func (s *MySQL) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	start := time.Now()

	query := "SELECT user_id, username, date_of_birth, wallet FROM users WHERE username = ?"
	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, username))
	s.record(ctx, "SELECT", "users", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CredentialsByUsername returns the user and the stored password hash.
func (s *MySQL) CredentialsByUsername(ctx context.Context, username string) (*models.User, string, error) {
	start := time.Now()

	query := "SELECT user_id, username, password, date_of_birth, wallet FROM users WHERE username = ?"
	var user models.User
	var hash string
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &hash, &user.DateOfBirth, &user.Wallet,
	)
	s.record(ctx, "SELECT", "users", query, start, err == nil || err == sql.ErrNoRows)

	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get credentials: %w", err)
	}
	return &user, hash, nil
}

// AllUsers returns every user, newest first.
func (s *MySQL) AllUsers(ctx context.Context) ([]models.User, error) {
	start := time.Now()

	query := "SELECT user_id, username, date_of_birth, wallet FROM users ORDER BY user_id DESC"
	rows, err := s.db.QueryContext(ctx, query)
	s.record(ctx, "SELECT", "users", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.DateOfBirth, &user.Wallet); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUsername renames a user; false when the current name matched no row.
func (s *MySQL) UpdateUsername(ctx context.Context, current, updated string) (bool, error) {
	start := time.Now()

	query := "UPDATE users SET username = ? WHERE username = ?"
	result, err := s.db.ExecContext(ctx, query, updated, current)
	s.record(ctx, "UPDATE", "users", query, start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to update username: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// DeleteUser removes a user; inventory rows cascade in storage.
func (s *MySQL) DeleteUser(ctx context.Context, id int64) (bool, error) {
	start := time.Now()

	query := "DELETE FROM users WHERE user_id = ?"
	result, err := s.db.ExecContext(ctx, query, id)
	s.record(ctx, "DELETE", "users", query, start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

const gameColumns = "game_id, name, price, rating, description, developer, publisher, recommendations, release_date, metacritic, discount_percent"

func scanGame(scanner interface{ Scan(...any) error }) (models.Game, error) {
	var game models.Game
	var metacritic sql.NullInt64
	err := scanner.Scan(
		&game.ID, &game.Name, &game.Price, &game.Rating, &game.Description,
		&game.Developer, &game.Publisher, &game.Recommendations,
		&game.ReleaseDate, &metacritic, &game.DiscountPercent,
	)
	if err != nil {
		return models.Game{}, err
	}
	if metacritic.Valid {
		score := int(metacritic.Int64)
		game.Metacritic = &score
	}
	return game, nil
}

func (s *MySQL) queryGames(ctx context.Context, query string, args ...any) ([]models.Game, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, query, args...)
	s.record(ctx, "SELECT", "games", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachTags(ctx, games); err != nil {
		return nil, err
	}
	return games, nil
}

// attachTags hydrates genre and category sets for the given games.
func (s *MySQL) attachTags(ctx context.Context, games []models.Game) error {
	if len(games) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Game, len(games))
	for i := range games {
		byID[games[i].ID] = &games[i]
	}

	start := time.Now()
	genreQuery := "SELECT game_fk, genre FROM game_genres"
	rows, err := s.db.QueryContext(ctx, genreQuery)
	s.record(ctx, "SELECT", "game_genres", genreQuery, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to query game genres: %w", err)
	}
	for rows.Next() {
		var gameID int64
		var genre string
		if err := rows.Scan(&gameID, &genre); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan genre: %w", err)
		}
		if game, ok := byID[gameID]; ok {
			game.Genres = append(game.Genres, genre)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	start = time.Now()
	categoryQuery := "SELECT game_fk, category FROM game_categories"
	rows, err = s.db.QueryContext(ctx, categoryQuery)
	s.record(ctx, "SELECT", "game_categories", categoryQuery, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to query game categories: %w", err)
	}
	for rows.Next() {
		var gameID int64
		var category string
		if err := rows.Scan(&gameID, &category); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan category: %w", err)
		}
		if game, ok := byID[gameID]; ok {
			game.Categories = append(game.Categories, category)
		}
	}
	rows.Close()
	return rows.Err()
}

// AllGames returns the whole catalog with tags attached.
func (s *MySQL) AllGames(ctx context.Context) ([]models.Game, error) {
	return s.queryGames(ctx, "SELECT "+gameColumns+" FROM games")
}

// GamesByReleaseDate returns the catalog, newest releases first.
func (s *MySQL) GamesByReleaseDate(ctx context.Context) ([]models.Game, error) {
	return s.queryGames(ctx, "SELECT "+gameColumns+" FROM games ORDER BY release_date DESC, game_id DESC")
}

// GameByID returns one game with tags, or nil when absent.
func (s *MySQL) GameByID(ctx context.Context, id int64) (*models.Game, error) {
	games, err := s.queryGames(ctx, "SELECT "+gameColumns+" FROM games WHERE game_id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, nil
	}
	return &games[0], nil
}

// InsertGame inserts a game plus its genre and category links, registering
// unseen tag values, all in one transaction.
func (s *MySQL) InsertGame(ctx context.Context, game *models.Game) (int64, error) {
	var gameID int64
	start := time.Now()
	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		query := "INSERT INTO games (name, price, rating, description, developer, publisher, recommendations, release_date, metacritic, discount_percent) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		var metacritic any
		if game.Metacritic != nil {
			metacritic = *game.Metacritic
		}
		result, err := tx.ExecContext(ctx, query,
			game.Name, game.Price, game.Rating, game.Description, game.Developer,
			game.Publisher, game.Recommendations, game.ReleaseDate, metacritic, game.DiscountPercent,
		)
		if err != nil {
			return fmt.Errorf("failed to insert game: %w", err)
		}
		gameID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get game ID: %w", err)
		}

		for _, genre := range game.Genres {
			if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO genres (genre) VALUES (?)", genre); err != nil {
				return fmt.Errorf("failed to register genre: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO game_genres (game_fk, genre) VALUES (?, ?)", gameID, genre); err != nil {
				return fmt.Errorf("failed to link genre: %w", err)
			}
		}
		for _, category := range game.Categories {
			if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO categories (category) VALUES (?)", category); err != nil {
				return fmt.Errorf("failed to register category: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO game_categories (game_fk, category) VALUES (?, ?)", gameID, category); err != nil {
				return fmt.Errorf("failed to link category: %w", err)
			}
		}
		return nil
	})
	s.record(ctx, "INSERT", "games", "INSERT INTO games", start, err == nil)
	if err != nil {
		return 0, err
	}
	return gameID, nil
}

// IsGameOfAge reports whether the game's required age is at most age.
func (s *MySQL) IsGameOfAge(ctx context.Context, gameID int64, age int) (bool, error) {
	start := time.Now()

	query := `
		SELECT COUNT(*)
		FROM games g INNER JOIN ratings r ON g.rating = r.rating
		WHERE g.game_id = ? AND r.required_age <= ?
	`
	var count int
	err := s.db.QueryRowContext(ctx, query, gameID, age).Scan(&count)
	s.record(ctx, "SELECT", "games", query, start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to check game age requirement: %w", err)
	}
	return count > 0, nil
}

// sortedGameIDs returns quantity map keys in ascending order so statements
// execute in a stable order.
func sortedGameIDs(quantities map[int64]int) []int64 {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CreatePurchase persists a purchase order, its per-game detail rows, and the
// debited wallet balance in a single transaction.
func (s *MySQL) CreatePurchase(ctx context.Context, userID int64, placedAt time.Time, total decimal.Decimal, quantities map[int64]int, newBalance decimal.Decimal) (int64, error) {
	var orderID int64
	start := time.Now()
	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		orderQuery := "INSERT INTO orders (user_fk, kind, order_date, total_cost) VALUES (?, 'purchase', ?, ?)"
		result, err := tx.ExecContext(ctx, orderQuery, userID, placedAt, total)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		orderID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get order ID: %w", err)
		}

		detailQuery := "INSERT INTO order_details (order_fk, game_fk, quantity) VALUES (?, ?, ?)"
		for _, gameID := range sortedGameIDs(quantities) {
			if _, err := tx.ExecContext(ctx, detailQuery, orderID, gameID, quantities[gameID]); err != nil {
				return fmt.Errorf("failed to insert order detail: %w", err)
			}
		}

		walletQuery := "UPDATE users SET wallet = ? WHERE user_id = ?"
		if _, err := tx.ExecContext(ctx, walletQuery, newBalance, userID); err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
		return nil
	})
	s.record(ctx, "INSERT", "orders", "INSERT INTO orders (purchase)", start, err == nil)
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// CreateTopUp persists a top-up order and the credited balance in a single
// transaction. Top-ups carry no detail rows.
func (s *MySQL) CreateTopUp(ctx context.Context, userID int64, placedAt time.Time, amount decimal.Decimal, newBalance decimal.Decimal) (int64, error) {
	var orderID int64
	start := time.Now()
	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		orderQuery := "INSERT INTO orders (user_fk, kind, order_date, total_cost) VALUES (?, 'topup', ?, ?)"
		result, err := tx.ExecContext(ctx, orderQuery, userID, placedAt, amount)
		if err != nil {
			return fmt.Errorf("failed to insert top-up order: %w", err)
		}
		orderID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get order ID: %w", err)
		}

		walletQuery := "UPDATE users SET wallet = ? WHERE user_id = ?"
		if _, err := tx.ExecContext(ctx, walletQuery, newBalance, userID); err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}
		return nil
	})
	s.record(ctx, "INSERT", "orders", "INSERT INTO orders (topup)", start, err == nil)
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// UpdateWallet persists a new wallet balance.
func (s *MySQL) UpdateWallet(ctx context.Context, userID int64, balance decimal.Decimal) error {
	start := time.Now()

	query := "UPDATE users SET wallet = ? WHERE user_id = ?"
	_, err := s.db.ExecContext(ctx, query, balance, userID)
	s.record(ctx, "UPDATE", "users", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	return nil
}

// AddToInventory increments owned quantities with one upsert per game, all in
// one transaction. The increment happens in the statement itself, not as a
// read-then-write.
func (s *MySQL) AddToInventory(ctx context.Context, userID int64, quantities map[int64]int) error {
	start := time.Now()
	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO user_games (user_fk, game_fk, quantity_in_inventory) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE quantity_in_inventory = quantity_in_inventory + VALUES(quantity_in_inventory)
		`
		for _, gameID := range sortedGameIDs(quantities) {
			if _, err := tx.ExecContext(ctx, query, userID, gameID, quantities[gameID]); err != nil {
				return fmt.Errorf("failed to upsert inventory: %w", err)
			}
		}
		return nil
	})
	s.record(ctx, "INSERT", "user_games", "INSERT INTO user_games (upsert)", start, err == nil)
	return err
}

// UserInventory returns the games a user owns with quantities.
func (s *MySQL) UserInventory(ctx context.Context, userID int64) ([]models.OwnedGame, error) {
	start := time.Now()

	query := `
		SELECT ` + gameColumns + `, quantity_in_inventory
		FROM games INNER JOIN user_games ug ON games.game_id = ug.game_fk
		WHERE ug.user_fk = ?
		ORDER BY games.name
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	s.record(ctx, "SELECT", "user_games", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var owned []models.OwnedGame
	for rows.Next() {
		var item models.OwnedGame
		var metacritic sql.NullInt64
		if err := rows.Scan(
			&item.Game.ID, &item.Game.Name, &item.Game.Price, &item.Game.Rating,
			&item.Game.Description, &item.Game.Developer, &item.Game.Publisher,
			&item.Game.Recommendations, &item.Game.ReleaseDate, &metacritic,
			&item.Game.DiscountPercent, &item.Quantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		if metacritic.Valid {
			score := int(metacritic.Int64)
			item.Game.Metacritic = &score
		}
		owned = append(owned, item)
	}
	return owned, rows.Err()
}

func (s *MySQL) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, query, args...)
	s.record(ctx, "SELECT", "orders", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		var userID sql.NullInt64
		if err := rows.Scan(&order.ID, &userID, &order.Kind, &order.PlacedAt, &order.TotalCost); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.UserID = userID.Int64
		order.Quantities = make(map[string]int)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	byID := make(map[int64]*models.Order, len(orders))
	for i := range orders {
		byID[orders[i].ID] = &orders[i]
	}

	start = time.Now()
	detailQuery := `
		SELECT od.order_fk, g.name, od.quantity
		FROM games g INNER JOIN order_details od ON g.game_id = od.game_fk
	`
	detailRows, err := s.db.QueryContext(ctx, detailQuery)
	s.record(ctx, "SELECT", "order_details", detailQuery, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query order details: %w", err)
	}
	defer detailRows.Close()

	for detailRows.Next() {
		var orderID int64
		var name string
		var quantity int
		if err := detailRows.Scan(&orderID, &name, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order detail: %w", err)
		}
		if order, ok := byID[orderID]; ok {
			order.Quantities[name] = quantity
		}
	}
	return orders, detailRows.Err()
}

// OrdersByUser returns a user's orders, most recent first.
func (s *MySQL) OrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.queryOrders(ctx,
		"SELECT order_id, user_fk, kind, order_date, total_cost FROM orders WHERE user_fk = ? ORDER BY order_date DESC", userID)
}

// RecentOrders returns all orders, most recent first.
func (s *MySQL) RecentOrders(ctx context.Context) ([]models.Order, error) {
	return s.queryOrders(ctx,
		"SELECT order_id, user_fk, kind, order_date, total_cost FROM orders ORDER BY order_date DESC")
}
