package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mkarchuk/gamestore/internal/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	schemaFile string
	seedFile   string
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the database schema and optionally seed the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInitDB(cmd.Context())
	},
}

func init() {
	initdbCmd.Flags().StringVar(&schemaFile, "schema", "schema.sql", "Path to the schema DDL file")
	initdbCmd.Flags().StringVar(&seedFile, "seed", "", "Optional JSON file with catalog seed data")
	rootCmd.AddCommand(initdbCmd)
}

// seedGame is the on-disk shape of a catalog seed entry.
type seedGame struct {
	Name            string   `json:"name"`
	Price           string   `json:"price"`
	Rating          string   `json:"rating"`
	Description     string   `json:"description"`
	Developer       string   `json:"developer"`
	Publisher       string   `json:"publisher"`
	Recommendations int      `json:"recommendations"`
	ReleaseDate     string   `json:"release_date"` // e.g. "Apr 12, 2016"
	Metacritic      *int     `json:"metacritic"`
	DiscountPercent string   `json:"discount_percent"`
	Genres          []string `json:"genres"`
	Categories      []string `json:"categories"`
}

func runInitDB(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	schemaSQL, err := os.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	if err := a.db.InitSchema(ctx, string(schemaSQL)); err != nil {
		return err
	}

	if seedFile == "" {
		return nil
	}

	raw, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	var seeds []seedGame
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	inserted := 0
	for _, seed := range seeds {
		game, err := seed.toGame()
		if err != nil {
			log.Printf("Skipping seed entry %q: %v", seed.Name, err)
			continue
		}
		if a.storefront.AddGame(ctx, game) {
			inserted++
		}
	}
	log.Printf("Seeded %d of %d games", inserted, len(seeds))
	return nil
}

func (s seedGame) toGame() (*models.Game, error) {
	price, err := decimal.NewFromString(s.Price)
	if err != nil {
		return nil, fmt.Errorf("bad price %q: %w", s.Price, err)
	}

	discount := decimal.Zero
	if s.DiscountPercent != "" {
		if discount, err = decimal.NewFromString(s.DiscountPercent); err != nil {
			return nil, fmt.Errorf("bad discount %q: %w", s.DiscountPercent, err)
		}
	}

	releaseDate, err := time.Parse("Jan 2, 2006", s.ReleaseDate)
	if err != nil {
		return nil, fmt.Errorf("bad release date %q: %w", s.ReleaseDate, err)
	}

	return &models.Game{
		Name:            s.Name,
		Price:           price,
		Rating:          models.Rating(s.Rating),
		Description:     s.Description,
		Developer:       s.Developer,
		Publisher:       s.Publisher,
		Recommendations: s.Recommendations,
		ReleaseDate:     releaseDate,
		Metacritic:      s.Metacritic,
		DiscountPercent: discount,
		Genres:          s.Genres,
		Categories:      s.Categories,
	}, nil
}
