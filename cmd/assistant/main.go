package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/medication-assistant/internal/application"
	"github.com/example/medication-assistant/internal/config"
	"github.com/example/medication-assistant/internal/conversation"
	httptransport "github.com/example/medication-assistant/internal/http"
	"github.com/example/medication-assistant/internal/persistence/sqlite"
	"github.com/example/medication-assistant/internal/photostore"
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Medication assistant API",
	Long:  "Conversational medication assistant: chat intake, dose scheduling and the agenda feed polled by the reminder bracelet.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		storage, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return err
		}
		defer storage.Close()
		return storage.Migrate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return err
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		return err
	}

	photos, err := photostore.New(cfg.PhotoDir)
	if err != nil {
		logger.Error("failed to prepare photo storage", "error", err)
		return err
	}

	// All time-of-day arithmetic runs in the patient's timezone.
	now := func() time.Time { return time.Now().In(cfg.Location) }

	medicationRepo := sqlite.NewMedicationRepository(storage)
	patientRepo := sqlite.NewPatientRepository(storage)
	sessionRepo := sqlite.NewSessionRepository(storage)

	medicationService := application.NewMedicationService(medicationRepo, patientRepo, photos, now, logger)
	confirmationService := application.NewConfirmationService(medicationService, now, logger)
	engine := conversation.NewEngine(medicationService, confirmationService, patientRepo, sessionRepo, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Chat:          httptransport.NewChatHandler(engine, logger),
		Agenda:        httptransport.NewAgendaHandler(medicationService, logger),
		Confirmations: httptransport.NewConfirmationHandler(confirmationService, logger),
		Photos:        httptransport.NewPhotoHandler(medicationService, photos, logger),
		Middleware:    []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("assistant API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		return err
	}
	return nil
}
