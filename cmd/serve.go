package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fatal777/invoisaic/internal/db"
	"github.com/Fatal777/invoisaic/internal/history"
	"github.com/Fatal777/invoisaic/internal/notifications"
	"github.com/Fatal777/invoisaic/internal/server"
)

var serveAllowAll bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the decision engine HTTP server",
	Long:  `Starts the HTTP server exposing the decision pipeline, the fraud scorer and the notification subscriber API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dbPath, err := databasePath(cfg)
		if err != nil {
			return err
		}
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		provider, err := createProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating provider: %w", err)
		}

		store, err := openKnowledgeStore(cfg)
		if err != nil {
			return fmt.Errorf("opening knowledge store: %w", err)
		}

		eventBus, err := createBusFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating event bus: %w", err)
		}
		defer eventBus.Close()

		eng, fraudEngine := buildEngine(cfg, database, store, provider, eventBus)

		// Escalations become critical notifications delivered to webhook
		// subscribers.
		notifStore := notifications.NewStore(database)
		dispatcher := notifications.NewDispatcher(notifStore)
		unsubscribe, err := dispatcher.SubscribeBus(eventBus)
		if err != nil {
			return fmt.Errorf("subscribing dispatcher: %w", err)
		}
		defer unsubscribe()

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: serveAllowAll,
		}, eng, fraudEngine, history.NewSQLiteStore(database), notifStore)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-stop:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}
