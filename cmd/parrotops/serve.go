package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbonduro/parrotops/internal/auth"
	"github.com/vbonduro/parrotops/internal/config"
	"github.com/vbonduro/parrotops/internal/db"
	"github.com/vbonduro/parrotops/internal/logging"
	"github.com/vbonduro/parrotops/internal/metrics"
	"github.com/vbonduro/parrotops/internal/service"
	"github.com/vbonduro/parrotops/internal/sheet"
	"github.com/vbonduro/parrotops/internal/store"
	"github.com/vbonduro/parrotops/internal/web"
)

func serveCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("listen", "", "Listen address")
	cmd.Flags().String("sheet-id", "", "Spreadsheet id")
	cmd.Flags().String("journal", "", "Path of the SQLite journal, empty to disable")
	cmd.Flags().Bool("auth-verify", true, "Verify bearer tokens with Google")
	mustBind(v, "LISTEN_ADDR", cmd, "listen")
	mustBind(v, "GOOGLE_SHEET_ID", cmd, "sheet-id")
	mustBind(v, "JOURNAL_PATH", cmd, "journal")
	mustBind(v, "AUTH_VERIFY", cmd, "auth-verify")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	openerOpts := []sheet.OpenerOption{sheet.WithObserver(m)}
	if cfg.SheetsEndpoint != "" {
		openerOpts = append(openerOpts, sheet.WithEndpoint(cfg.SheetsEndpoint))
	}
	opener := sheet.NewGoogleOpener(cfg.SheetID, openerOpts...)

	verifier, err := newVerifier(ctx, cfg, m, logger)
	if err != nil {
		return err
	}

	var svc *service.WarehouseService
	if cfg.JournalPath != "" {
		database, err := db.Open(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close journal", "error", err)
			}
		}()
		svc = service.NewWarehouseService(opener, store.NewJournalStore(database), logger)
		svc.SetJournalFailureRecorder(m)
		logger.Info("journal enabled", "path", cfg.JournalPath)
	} else {
		svc = service.NewWarehouseService(opener, nil, logger)
	}

	server := web.NewServer(svc, verifier, m, logger)
	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	return nil
}

func newVerifier(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (auth.Verifier, error) {
	if !cfg.AuthVerify {
		logger.Warn("token verification disabled, any bearer token is accepted")
		return auth.PresenceVerifier{}, nil
	}
	google, err := auth.NewGoogleVerifier(ctx)
	if err != nil {
		return nil, err
	}
	return auth.NewCachingVerifier(google, cfg.AuthCacheTTL, m), nil
}
