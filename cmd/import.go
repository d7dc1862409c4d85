package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lifelinehq/lifeline/internal/exchange"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a timeline document into the local database",
	Long: "Reads a versioned JSON timeline document and inserts it as a new " +
		"timeline. Identifiers in the document are remapped to fresh local " +
		"ones; nothing is written if the document is invalid.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := exchange.Import(s, data)
		if err != nil {
			return err
		}
		fmt.Printf("imported timeline %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
