package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/crowdship-backend/internal/app"
	"github.com/ignatzorin/crowdship-backend/internal/config"
	"github.com/ignatzorin/crowdship-backend/internal/db"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "parcelctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "parcelctl",
		Short: "Служебные операции crowdship",
		Long: `parcelctl выполняет обслуживание базы и отладку подбора: миграции,
обход просроченных матчей, расчёт оценки пары посылка/поездка и выпуск токенов.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger.Init(level)
			logger.SetTextFormatter()
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный лог")
	cmd.AddCommand(
		newMigrateCmd(),
		newSweepCmd(),
		newScoreCmd(),
		newTokenCmd(),
	)
	return cmd
}

// withInfra загружает конфигурацию и подключается к базе на время команды.
func withInfra(ctx context.Context, fn func(cfg *config.Config, infra *app.Infra) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	infra, err := app.Open(ctx, cfg, app.OpenOptions{})
	if err != nil {
		return err
	}
	defer infra.Close()
	return fn(cfg, infra)
}

func newMigrateCmd() *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции или показать их состояние",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInfra(cmd.Context(), func(cfg *config.Config, infra *app.Infra) error {
				out := cmd.OutOrStdout()
				if status {
					migrations, err := db.MigrationStatus(cmd.Context(), infra.DB, cfg.MigrationsPath)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "MIGRATION\tAPPLIED AT")
					for _, m := range migrations {
						applied := "pending"
						if m.AppliedAt != nil {
							applied = m.AppliedAt.UTC().Format(time.RFC3339)
						}
						fmt.Fprintf(w, "%s\t%s\n", m.Name, applied)
					}
					return w.Flush()
				}
				applied, err := db.RunMigrations(cmd.Context(), infra.DB, cfg.MigrationsPath)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(out, "новых миграций нет")
				}
				for _, name := range applied {
					fmt.Fprintf(out, "применена %s\n", name)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "Только показать состояние миграций")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Перевести просроченные матчи в expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInfra(cmd.Context(), func(cfg *config.Config, infra *app.Infra) error {
				uc := app.NewUseCases(cfg, infra, app.NewRepositories(infra), nil)
				n, err := uc.ExpireMatch.Sweep(cmd.Context(), batch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "истекло матчей: %d\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 200, "Сколько матчей обработать за раз")
	return cmd
}

func newScoreCmd() *cobra.Command {
	var parcelID, travelID string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Посчитать оценку совместимости посылки и поездки",
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := uuid.Parse(parcelID)
			if err != nil {
				return fmt.Errorf("некорректный --parcel: %w", err)
			}
			tid, err := uuid.Parse(travelID)
			if err != nil {
				return fmt.Errorf("некорректный --travel: %w", err)
			}
			return withInfra(cmd.Context(), func(cfg *config.Config, infra *app.Infra) error {
				ctx := cmd.Context()
				repos := app.NewRepositories(infra)
				uc := app.NewUseCases(cfg, infra, repos, nil)

				p, err := repos.Parcels.FindByID(ctx, pid)
				if err != nil {
					return err
				}
				t, err := repos.Travels.FindByID(ctx, tid)
				if err != nil {
					return err
				}
				rep, err := repos.Reputations.FindByUserID(ctx, t.CarrierID)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"score":   uc.Scorer.Score(p, t, rep).Breakdown(),
					"details": uc.Scorer.Details(p, t, rep),
				})
			})
		},
	}
	cmd.Flags().StringVar(&parcelID, "parcel", "", "ID посылки")
	cmd.Flags().StringVar(&travelID, "travel", "", "ID поездки")
	_ = cmd.MarkFlagRequired("parcel")
	_ = cmd.MarkFlagRequired("travel")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Выпустить пару токенов для пользователя",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("некорректный --user: %w", err)
			}
			return withInfra(cmd.Context(), func(cfg *config.Config, infra *app.Infra) error {
				repos := app.NewRepositories(infra)
				u, err := repos.Users.FindByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				pair, err := app.NewUseCases(cfg, infra, repos, nil).Tokens.GeneratePair(u)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pair.AccessToken)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "ID пользователя")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
