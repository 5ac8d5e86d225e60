package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"weekly-quiz-service/internal/app"
	"weekly-quiz-service/internal/config"
)

// NewWindowCmd lets an operator open, close or inspect the quiz window
// against the shared database.
func NewWindowCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Open, close or inspect the quiz window",
	}

	run := func(action func(ctx context.Context, service *app.QuizService) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			ctx := cmd.Context()
			b, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			service, err := buildService(cfg, b, nil)
			if err != nil {
				return err
			}
			out, err := action(ctx, service)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "open",
		Short: "Open the window for the current period",
		RunE: run(func(ctx context.Context, service *app.QuizService) (any, error) {
			return service.OpenWindow(ctx)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "close",
		Short: "Close the active window and print its winners",
		RunE: run(func(ctx context.Context, service *app.QuizService) (any, error) {
			return service.CloseWindow(ctx)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the active window",
		RunE: run(func(ctx context.Context, service *app.QuizService) (any, error) {
			window, ok, err := service.ActiveWindow(ctx)
			if err != nil || !ok {
				return map[string]any{"active": false}, err
			}
			return window, nil
		}),
	})
	return cmd
}
