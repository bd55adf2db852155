package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Fatal777/invoisaic/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize invoisaic configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the decision engine and generates a .invoisaic.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
