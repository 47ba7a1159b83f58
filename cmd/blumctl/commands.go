package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blum/internal/config"
	"blum/internal/db"
	"blum/internal/domain"
	"blum/internal/repository"
	"blum/internal/service"
	"blum/internal/sheets"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "blumctl",
		Short:         "Operaciones del backend del cuestionario BLUM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newHeadersCmd(), newReplayCmd(), newResolveCmd())
	return root
}

// headers imprime la fila de encabezados que espera la planilla.
func newHeadersCmd() *cobra.Command {
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "headers",
		Short: "Print the spreadsheet header row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if asCSV {
				_, err := fmt.Fprintln(out, strings.Join(sheets.Headers, ","))
				return err
			}
			for i, col := range sheets.Columns {
				if _, err := fmt.Fprintf(out, "%2d  %-24s %s\n", i+1, col, sheets.Headers[i]); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print the titles as a single comma separated row")
	return cmd
}

func newReplayCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-send pending fallback rows to the spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required to replay fallback rows")
			}
			if cfg.SheetWebhookURL == "" {
				return errors.New("SHEET_WEBHOOK_URL is required to replay fallback rows")
			}

			logger, _ := zap.NewProduction()
			defer logger.Sync()

			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()
			if err := db.Ping(ctx, pool); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}
			if err := db.EnsureSchema(ctx, pool); err != nil {
				return fmt.Errorf("db schema: %w", err)
			}

			client := sheets.NewHTTPClient(cfg.SheetWebhookURL, cfg.SheetTimeout(), logger)
			svc := service.NewSubmissionService(logger, client, repository.NewPgFallbackRepository(pool), nil, nil)
			report, err := svc.Replay(ctx, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd, report)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of pending rows to replay")
	return cmd
}

func newResolveCmd() *cobra.Command {
	var (
		age        int
		concerns   []string
		conditions []string
		pregnancy  bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the protocol for an age and a set of concerns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec := domain.NewAnswerRecord("cli", time.Now())
			rec.PersonalData = &domain.PersonalData{}
			if age > 0 {
				rec.PersonalData.Age = domain.AgeText(strconv.Itoa(age))
			}
			rec.SkinProfile = &domain.SkinProfile{Concerns: concerns}
			if len(conditions) > 0 || pregnancy {
				rec.MedicalHistory = &domain.MedicalHistory{Conditions: conditions, Pregnancy: pregnancy}
			}
			return writeJSON(cmd, service.Resolve(&rec))
		},
	}
	cmd.Flags().IntVar(&age, "age", 0, "client age in years")
	cmd.Flags().StringSliceVar(&concerns, "concern", nil, "skin concern tag (repeatable)")
	cmd.Flags().StringSliceVar(&conditions, "condition", nil, "medical condition tag (repeatable)")
	cmd.Flags().BoolVar(&pregnancy, "pregnancy", false, "client is pregnant or breastfeeding")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
