package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "invoisaic",
	Short: "Autonomous decision engine for invoicing and fraud workflows",
	Long: `Invoisaic scores incoming business events, picks how much model
capability to spend on them, enriches them with retrieved knowledge and
historical precedent, and returns a structured decision. Outcomes feed
a learning store that informs future decisions.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".invoisaic.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
