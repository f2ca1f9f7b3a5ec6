package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"school-competition-service/internal/config"
	"school-competition-service/internal/domain"

	"github.com/spf13/cobra"
)

// catalog is the seed file layout.
type catalog struct {
	Questions    []domain.Question    `json:"questions"`
	Competitions []domain.Competition `json:"competitions"`
}

// NewSeedCmd loads questions and competitions into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions and competitions into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			data, err := loadCatalog(file)
			if err != nil {
				return err
			}
			return seed(cmd.Context(), cfg, data)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with questions and competitions; built-in samples when empty")
	return cmd
}

func loadCatalog(path string) (catalog, error) {
	if path == "" {
		return catalog{Questions: sampleQuestions(), Competitions: sampleCompetitions()}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return catalog{}, err
	}
	var data catalog
	if err := json.Unmarshal(raw, &data); err != nil {
		return catalog{}, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, c := range data.Competitions {
		if err := c.Validate(); err != nil {
			return catalog{}, fmt.Errorf("competition %s: %w", c.ID, err)
		}
	}
	return data, nil
}

func seed(ctx context.Context, cfg config.Config, data catalog) error {
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}
	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if store.catalog == nil {
		return fmt.Errorf("%s data store cannot be seeded; configure postgres or sqlite", store.name)
	}

	for _, q := range data.Questions {
		if err := store.catalog.SaveQuestion(ctx, q); err != nil {
			return err
		}
	}
	for _, c := range data.Competitions {
		if err := store.catalog.SaveCompetition(ctx, c); err != nil {
			return err
		}
	}
	log.Printf("seeded %d questions and %d competitions into %s", len(data.Questions), len(data.Competitions), store.name)
	return nil
}
