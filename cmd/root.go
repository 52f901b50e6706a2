package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/anchor-demo/internal/flows"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "anchor-demo",
	Short: "Step-by-step SEP-10 and SEP-6 wallet demo against a Stellar anchor",
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			log.Fatalf("Error calling help command: %s", err.Error())
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("Error executing root command: %s", err.Error())
	}
}

func init() {
	log.DefaultLogger = log.New()

	rootCmd.AddCommand((&runCmd{flow: flows.WithdrawFlow}).Command())
	rootCmd.AddCommand((&runCmd{flow: flows.DepositFlow}).Command())
	rootCmd.AddCommand((&runCmd{}).Command())
	rootCmd.AddCommand((&historyCmd{}).Command())
	rootCmd.AddCommand((&migrateCmd{}).Command())
}
