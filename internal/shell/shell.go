// Package shell implements the interactive storefront menus. It collects raw
// strings from the operator and delegates every semantic decision to the
// services; nothing here validates input beyond menu routing.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mkarchuk/gamestore/internal/models"
	"github.com/mkarchuk/gamestore/internal/services"
	"github.com/mkarchuk/gamestore/internal/validate"
	"github.com/mkarchuk/gamestore/pkg/config"
	"github.com/shopspring/decimal"
)

// Shell drives the terminal menus.
type Shell struct {
	cfg        *config.Config
	accounts   *services.AccountService
	storefront *services.StorefrontService
	purchases  *services.PurchaseService

	in  *bufio.Scanner
	out io.Writer
}

// New creates a shell reading from in and writing to out.
func New(cfg *config.Config, accounts *services.AccountService, storefront *services.StorefrontService, purchases *services.PurchaseService, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		cfg:        cfg,
		accounts:   accounts,
		storefront: storefront,
		purchases:  purchases,
		in:         bufio.NewScanner(in),
		out:        out,
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// prompt prints the menu text and returns the next input line, upper-cased
// and trimmed. ok is false once input is exhausted.
func (s *Shell) prompt(menu string) (string, bool) {
	s.printf("%s>> ", menu)
	if !s.in.Scan() {
		return "", false
	}
	return strings.ToUpper(strings.TrimSpace(s.in.Text())), true
}

// promptRaw returns the next input line untouched (for passwords and names).
func (s *Shell) promptRaw(question string) (string, bool) {
	s.printf("%s\n>> ", question)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// Run presents the top-level menu until the operator quits or input ends.
func (s *Shell) Run(ctx context.Context) {
	intro := "Welcome to The Game Store"
	for {
		s.printf("\n%s\n%s\n%s\n", strings.Repeat("=", len(intro)), intro, strings.Repeat("=", len(intro)))
		option, ok := s.prompt("Who are you?:\n[U]ser\n[A]dmin\n[Q]uit\n")
		if !ok || option == "Q" {
			return
		}
		switch option {
		case "U":
			s.userPrescreen(ctx)
		case "A":
			s.adminPrescreen(ctx)
		default:
			s.printf("Please choose one of: u, a, q\n")
		}
	}
}

func (s *Shell) userPrescreen(ctx context.Context) {
	for {
		option, ok := s.prompt("What would you like to do?\n[L]og in\n[C]reate an account\n[B]ack\n")
		if !ok || option == "B" {
			return
		}
		switch option {
		case "L":
			username, ok := s.promptRaw("Enter a username:")
			if !ok {
				return
			}
			password, ok := s.promptRaw("Enter a password:")
			if !ok {
				return
			}
			if user := s.accounts.Login(ctx, username, password); user != nil {
				s.printf("Login successful!\n")
				s.userMode(ctx, user)
			} else {
				s.printf("Invalid username or password.\n")
			}
		case "C":
			username, ok := s.promptRaw("Enter a username:")
			if !ok {
				return
			}
			password, ok := s.promptRaw("Enter a password:")
			if !ok {
				return
			}
			dateOfBirth, ok := s.promptRaw("Enter your date of birth (YYYY-MM-DD):")
			if !ok {
				return
			}
			if s.accounts.Register(ctx, username, password, dateOfBirth) {
				s.printf("Account created!\n")
			} else {
				s.printf("Could not create account.\n")
			}
		default:
			s.printf("Please choose one of: l, c, b\n")
		}
	}
}

func (s *Shell) userMode(ctx context.Context, user *models.User) {
	for {
		s.printf("\nWelcome %s!\n\n", user.Username)
		option, ok := s.prompt("What would you like to do?\n[B]rowse store\nYour [I]nventory\nYour [O]rder History\nYour [W]allet\n[L]og out\n")
		if !ok {
			return
		}
		switch option {
		case "B":
			s.browseStore(ctx, user)
		case "I":
			s.viewInventory(ctx, user)
		case "O":
			s.orderHistory(s.storefront.OrdersByUser(ctx, user.ID))
		case "W":
			s.manageWallet(ctx, user)
		case "L":
			s.printf("Logging out...\n")
			log.Printf("[SHELL] user [%s] logged out", user.Username)
			return
		default:
			s.printf("Please choose one of: b, i, o, w, l\n")
		}
	}
}

// browseStore pages through the catalog five games at a time.
func (s *Shell) browseStore(ctx context.Context, user *models.User) {
	games := s.storefront.AllGames(ctx)
	if len(games) == 0 {
		s.printf("The store is empty right now.\n")
		return
	}

	byID := make(map[int64]bool, len(games))
	for i := range games {
		byID[games[i].ID] = true
	}

	pageSize := s.cfg.PageSize
	for start := 0; start < len(games); {
		end := start + pageSize
		if end > len(games) {
			end = len(games)
		}
		for i := start; i < end; i++ {
			s.printf("%s", games[i].Truncated())
		}

		option, ok := s.prompt("[Game Number] to view more details\n[Enter] to load more games\n[B]ack\n")
		if !ok || option == "B" {
			return
		}
		if id, err := strconv.ParseInt(option, 10, 64); err == nil && byID[id] {
			s.viewGame(ctx, id, user)
			continue
		}
		if end == len(games) {
			return
		}
		start = end
	}
}

// viewGame shows a product page and offers the add-to-cart / checkout flow.
func (s *Shell) viewGame(ctx context.Context, gameID int64, user *models.User) {
	game := s.storefront.GameByID(ctx, gameID)
	if game == nil {
		s.printf("That game could not be found.\n")
		return
	}

	for {
		s.printf("%s", game.Detailed())
		s.printf("%s\n", user.WalletLine())
		option, ok := s.prompt(fmt.Sprintf("[A]dd %s to cart?\n[B]ack\n", game.Name))
		if !ok || option == "B" {
			return
		}
		if option != "A" {
			s.printf("Please choose one of: a, b\n")
			continue
		}

		user.Cart.Add(*game)
		s.printf("%s", user.Cart.String())
		confirm, ok := s.prompt("[P]urchase your cart\n[K]eep browsing\n")
		if !ok {
			return
		}
		if confirm != "P" {
			continue
		}
		if s.purchases.PurchaseGames(ctx, user, user.Cart.Games) {
			s.printf("\nPurchase successful!\n")
			s.purchases.AddGamesToUser(ctx, user, user.Cart.Games)
			user.Cart.Empty()
		} else {
			s.printf("\nPurchase failed; your cart is unchanged.\n")
		}
	}
}

func (s *Shell) viewInventory(ctx context.Context, user *models.User) {
	s.printf("\n%s\n", center("Your Inventory", 30, '='))
	s.printf("gID\tQty\tTitle\n")
	for _, item := range s.storefront.UserInventory(ctx, user) {
		s.printf("%d\t%d\t%s\n", item.Game.ID, item.Quantity, item.Game.Name)
	}
	s.prompt("\n[Enter] to go back\n")
}

func (s *Shell) orderHistory(orders []models.Order) {
	if len(orders) == 0 {
		s.printf("No orders yet.\n")
		return
	}

	pageSize := s.cfg.PageSize
	for start := 0; start < len(orders); {
		end := start + pageSize
		if end > len(orders) {
			end = len(orders)
		}
		if start == 0 {
			s.printf("oID\tPlaced\t\t\tTotal\tKind\n")
		}
		for i := start; i < end; i++ {
			s.printf("%s", orders[i].String())
		}

		if end == len(orders) {
			return
		}
		option, ok := s.prompt("[Enter] to load more orders\n[B]ack\n")
		if !ok || option == "B" {
			return
		}
		start = end
	}
}

// manageWallet lets the user view and add funds.
func (s *Shell) manageWallet(ctx context.Context, user *models.User) {
	for {
		s.printf("%s\n", user.WalletLine())
		option, ok := s.prompt("\nWhat would you like to do?\n[A]dd funds to your wallet\n[B]ack\n")
		if !ok || option == "B" {
			return
		}
		if option != "A" {
			s.printf("Please choose one of: a, b\n")
			continue
		}

		amount, ok := s.promptRaw("How much would you like to add? $")
		if !ok {
			return
		}
		if s.purchases.PurchaseWalletFunds(ctx, user, amount) {
			s.printf("Thank you for your purchase!\nAdded $%s to your wallet\n\n", amount)
		} else {
			s.printf("Please enter a valid amount.\n")
		}
	}
}

func (s *Shell) adminPrescreen(ctx context.Context) {
	password, ok := s.promptRaw("Please enter the admin password:")
	if !ok {
		return
	}
	if password != s.cfg.AdminPassword {
		s.printf("Incorrect admin password.\n")
		return
	}
	s.printf("Success! Welcome, admin.\n")
	log.Printf("[SHELL] admin logged in")
	s.adminMode(ctx)
}

func (s *Shell) adminMode(ctx context.Context) {
	for {
		option, ok := s.prompt("What would you like to do?\nView [U]sers\nView [O]rders\n[A]dd a game\n[R]ename a user\n[D]elete a user\n[L]og out\n")
		if !ok || option == "L" {
			log.Printf("[SHELL] admin logged out")
			return
		}
		switch option {
		case "U":
			s.printf("uID\tWallet\tBorn\t\tUsername\n")
			for _, user := range s.accounts.ListUsers(ctx) {
				s.printf("%d\t$%s\t%s\t%s\n", user.ID, user.Wallet.StringFixed(2), user.DateOfBirth.Format("2006-01-02"), user.Username)
			}
		case "O":
			s.orderHistory(s.storefront.RecentOrders(ctx))
		case "A":
			s.adminAddGame(ctx)
		case "R":
			current, ok := s.promptRaw("Current username:")
			if !ok {
				return
			}
			updated, ok := s.promptRaw("New username:")
			if !ok {
				return
			}
			if s.accounts.UpdateUsername(ctx, current, updated) {
				s.printf("Username updated.\n")
			} else {
				s.printf("Could not update username.\n")
			}
		case "D":
			raw, ok := s.promptRaw("User id to delete:")
			if !ok {
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				s.printf("Please enter a numeric user id.\n")
				continue
			}
			if s.accounts.RemoveUser(ctx, id) {
				s.printf("User deleted.\n")
			} else {
				s.printf("Could not delete user.\n")
			}
		default:
			s.printf("Please choose one of: u, o, a, r, d, l\n")
		}
	}
}

func (s *Shell) adminAddGame(ctx context.Context) {
	game, ok := s.collectGame()
	if !ok {
		return
	}
	if s.storefront.AddGame(ctx, game) {
		s.printf("Added %s to the catalog as game %d.\n", game.Name, game.ID)
	} else {
		s.printf("Could not add the game.\n")
	}
}

func (s *Shell) collectGame() (*models.Game, bool) {
	game := &models.Game{}

	name, ok := s.promptRaw("Title:")
	if !ok {
		return nil, false
	}
	game.Name = name

	price, ok := s.promptRaw("Price: $")
	if !ok {
		return nil, false
	}
	parsedPrice, err := parsePrice(price)
	if err != nil {
		s.printf("Please enter a valid price.\n")
		return nil, false
	}
	game.Price = parsedPrice

	rating, ok := s.promptRaw("Rating (e, e10, t, m, ao, rp):")
	if !ok {
		return nil, false
	}
	game.Rating = models.Rating(strings.ToLower(rating))

	game.Description, ok = s.promptRaw("Description:")
	if !ok {
		return nil, false
	}
	game.Developer, ok = s.promptRaw("Developer:")
	if !ok {
		return nil, false
	}
	game.Publisher, ok = s.promptRaw("Publisher:")
	if !ok {
		return nil, false
	}

	release, ok := s.promptRaw("Release date (YYYY-MM-DD):")
	if !ok {
		return nil, false
	}
	releaseDate, err := parseDate(release)
	if err != nil {
		s.printf("Please enter a valid date.\n")
		return nil, false
	}
	game.ReleaseDate = releaseDate

	genres, ok := s.promptRaw("Genres (comma separated):")
	if !ok {
		return nil, false
	}
	game.Genres = splitTags(genres)

	categories, ok := s.promptRaw("Categories (comma separated):")
	if !ok {
		return nil, false
	}
	game.Categories = splitTags(categories)

	return game, true
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Round(2), nil
}

func parseDate(raw string) (time.Time, error) {
	return validate.ParseDate(raw)
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func center(text string, width int, pad rune) string {
	if len(text) >= width {
		return text
	}
	left := (width - len(text)) / 2
	right := width - len(text) - left
	return strings.Repeat(string(pad), left) + text + strings.Repeat(string(pad), right)
}
