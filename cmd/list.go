package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored timelines",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		metas, err := s.ListTimelineMetadata()
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Println("no timelines")
			return nil
		}
		for _, md := range metas {
			name := md.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("%4d  %-30s %s — %s  (%d events)\n",
				md.ID, name, md.Start, md.End, len(md.EventIDs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
