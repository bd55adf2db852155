package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fatal777/invoisaic/internal/bus"
	"github.com/Fatal777/invoisaic/internal/db"
	"github.com/Fatal777/invoisaic/internal/decision"
)

var (
	decideCategory   string
	decideUrgency    string
	decideConfidence int
	decidePayload    string
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Run one decision request through the pipeline",
	Long:  `Runs a single decision request from the command line and prints the resulting decision as JSON. Useful for smoke-testing a configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var payload decision.Payload
		if decidePayload != "" {
			if err := json.Unmarshal([]byte(decidePayload), &payload); err != nil {
				return fmt.Errorf("parsing payload: %w", err)
			}
		}

		req := decision.Request{
			Category:           decision.Category(decideCategory),
			Payload:            payload,
			Urgency:            decision.Urgency(decideUrgency),
			RequiredConfidence: decideConfidence,
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

		eventBus := bus.NewChannelBus(cfg.Bus.BufferSize)
		defer eventBus.Close()

		eng, _ := buildEngine(cfg, database, store, provider, eventBus)
		d := eng.Decide(context.Background(), req)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	},
}

func init() {
	decideCmd.Flags().StringVar(&decideCategory, "category", "invoice_generation", "decision category")
	decideCmd.Flags().StringVar(&decideUrgency, "urgency", "medium", "urgency: low, medium, high or critical")
	decideCmd.Flags().IntVar(&decideConfidence, "required-confidence", 80, "required confidence 0-100")
	decideCmd.Flags().StringVar(&decidePayload, "payload", "", "request payload as a JSON object")
	rootCmd.AddCommand(decideCmd)
}
