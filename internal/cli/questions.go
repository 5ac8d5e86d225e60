package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"weekly-quiz-service/internal/catalog"
	"weekly-quiz-service/internal/config"
	"weekly-quiz-service/internal/infra/postgres"
)

// NewQuestionsCmd groups catalog maintenance commands.
func NewQuestionsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage the question catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml|file.xlsx>",
		Short: "Upsert questions from a YAML or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			questions, err := catalog.Load(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			b, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			store := postgres.NewQuestionStore(b.pool)
			n, err := store.Upsert(ctx, questions)
			if err != nil {
				return err
			}
			if cache := b.catalogCache(cfg, store); cache != nil {
				if err := cache.Invalidate(ctx); err != nil {
					log.Printf("invalidate catalog cache: %v", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions from %s\n", n, args[0])
			return nil
		},
	})
	return cmd
}
