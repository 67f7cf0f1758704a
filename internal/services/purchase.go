package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mkarchuk/gamestore/internal/metrics"
	"github.com/mkarchuk/gamestore/internal/models"
	"github.com/mkarchuk/gamestore/internal/store"
	"github.com/mkarchuk/gamestore/internal/validate"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PurchaseService orchestrates the purchase pipeline: age-gating, funds
// checks, order persistence, wallet movement, and inventory grants.
type PurchaseService struct {
	store   store.Store
	metrics *metrics.AppMetrics
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(st store.Store, m *metrics.AppMetrics) *PurchaseService {
	return &PurchaseService{
		store:   st,
		metrics: m,
	}
}

// IsOfAgeFor reports whether the user's computed age meets the game rating's
// required age. The ratings table in storage is authoritative.
func (s *PurchaseService) IsOfAgeFor(ctx context.Context, user *models.User, game *models.Game) bool {
	age := validate.YearsSince(user.DateOfBirth)
	ok, err := s.store.IsGameOfAge(ctx, game.ID, age)
	if err != nil {
		report("AGEGATE", err)
		return false
	}
	return ok
}

// PurchaseGames runs the purchase pipeline for an ordered sequence of games.
// Every precondition aborts with no mutation: non-empty input, the age gate
// on every game, and an incremental funds check that is applied after each
// game's discounted price joins the running total. The order row, its detail
// rows, and the wallet debit are persisted in one storage transaction, so a
// reported success always reflects a debited wallet.
func (s *PurchaseService) PurchaseGames(ctx context.Context, user *models.User, games []models.Game) bool {
	if len(games) == 0 {
		report("PURCHASE", fmt.Errorf("%w: no games selected", ErrValidation))
		return false
	}

	for i := range games {
		if !s.IsOfAgeFor(ctx, user, &games[i]) {
			report("PURCHASE", fmt.Errorf("%w: not old enough to purchase %s", ErrUnderage, games[i].Name))
			return false
		}
	}

	total := decimal.Zero
	for i := range games {
		total = total.Add(games[i].DiscountedPrice())
		if total.GreaterThan(user.Wallet) {
			report("PURCHASE", fmt.Errorf("%w: running total $%s at %s exceeds wallet balance $%s",
				ErrInsufficientFunds, total.StringFixed(2), games[i].Name, user.Wallet.StringFixed(2)))
			return false
		}
	}

	// Duplicate games collapse into quantities keyed by game id.
	quantities := make(map[int64]int, len(games))
	for i := range games {
		quantities[games[i].ID]++
	}

	newBalance := user.Wallet.Sub(total)
	orderID, err := s.store.CreatePurchase(ctx, user.ID, time.Now(), total, quantities, newBalance)
	if err != nil {
		report("PURCHASE", err)
		return false
	}
	user.Wallet = newBalance

	log.Printf("[PURCHASE] order [%d] by user [%d] for $%s (%d titles)", orderID, user.ID, total.StringFixed(2), len(quantities))
	s.recordOrder(ctx, string(models.OrderPurchase), total)
	return true
}

// UpdateWalletFunds is the sole standalone path for mutating a wallet
// balance. A negative balance is rejected before any persistence call.
func (s *PurchaseService) UpdateWalletFunds(ctx context.Context, user *models.User, newBalance decimal.Decimal) bool {
	if newBalance.IsNegative() {
		report("WALLET", fmt.Errorf("%w: refusing to set balance to $%s", ErrNegativeBalance, newBalance.StringFixed(2)))
		return false
	}

	if err := s.store.UpdateWallet(ctx, user.ID, newBalance); err != nil {
		report("WALLET", err)
		return false
	}
	user.Wallet = newBalance
	return true
}

// PurchaseWalletFunds credits the wallet with a purchased amount. The amount
// is parsed as money; a non-positive or unparsable amount is rejected without
// mutation. The top-up is persisted as its own order kind together with the
// credited balance.
func (s *PurchaseService) PurchaseWalletFunds(ctx context.Context, user *models.User, amount string) bool {
	credit, err := validate.ParseMoney(amount)
	if err != nil {
		report("TOPUP", fmt.Errorf("%w: %v", ErrValidation, err))
		return false
	}

	newBalance := user.Wallet.Add(credit)
	orderID, err := s.store.CreateTopUp(ctx, user.ID, time.Now(), credit, newBalance)
	if err != nil {
		report("TOPUP", err)
		return false
	}
	user.Wallet = newBalance

	log.Printf("[TOPUP] order [%d] by user [%d] for $%s", orderID, user.ID, credit.StringFixed(2))
	if s.metrics != nil {
		s.metrics.WalletTopUps.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName(nil)...))
	}
	s.recordOrder(ctx, string(models.OrderTopUp), credit)
	return true
}

// AddGamesToUser grants purchased games to the user's inventory. It
// re-validates the input and re-applies the age gate independently of the
// purchase pipeline, so inventory can never be granted for an underage game
// even when called directly. Quantities are merged by game identity and
// incremented atomically in storage.
func (s *PurchaseService) AddGamesToUser(ctx context.Context, user *models.User, games []models.Game) bool {
	if len(games) == 0 {
		report("INVENTORY", fmt.Errorf("%w: no games to add", ErrValidation))
		return false
	}

	for i := range games {
		if !s.IsOfAgeFor(ctx, user, &games[i]) {
			report("INVENTORY", fmt.Errorf("%w: not old enough to own %s", ErrUnderage, games[i].Name))
			return false
		}
	}

	quantities := make(map[int64]int, len(games))
	for i := range games {
		quantities[games[i].ID]++
	}

	if err := s.store.AddToInventory(ctx, user.ID, quantities); err != nil {
		report("INVENTORY", err)
		return false
	}

	log.Printf("[INVENTORY] added %d titles to user [%d]", len(quantities), user.ID)
	return true
}

func (s *PurchaseService) recordOrder(ctx context.Context, kind string, total decimal.Decimal) {
	if s.metrics == nil {
		return
	}
	attrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("order_kind", kind),
	})
	s.metrics.OrdersCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
	s.metrics.RevenueTotal.Add(ctx, total.InexactFloat64(), metric.WithAttributes(attrs...))
}
