package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lifelinehq/lifeline/internal/config"
	"github.com/lifelinehq/lifeline/internal/exchange"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

var (
	exportOutput string
	exportCSV    bool
)

var exportCmd = &cobra.Command{
	Use:   "export <timeline-id>",
	Short: "Export a timeline as a versioned JSON document (or CSV)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timeline id %q", args[0])
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		tid := timeline.TimelineID(id)
		if exportCSV {
			t, err := s.GetTimelineByID(tid)
			if err != nil {
				return err
			}
			path := exportOutput
			if path == "" {
				path = fmt.Sprintf("lifeline-%d.csv", id)
			}
			if err := exchange.ToCSV(t, path); err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		}

		pretty := config.Load().PrettyExport
		if exportOutput == "" {
			data, err := exchange.ExportJSON(s, tid, pretty)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		if err := exchange.ExportFile(s, tid, exportOutput, pretty); err != nil {
			return err
		}
		fmt.Println(exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportCSV, "csv", false, "export events as CSV instead of a JSON document")
	rootCmd.AddCommand(exportCmd)
}
