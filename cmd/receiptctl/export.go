package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func parseDay(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("--%s must be YYYY-MM-DD: %w", flag, err)
	}
	return &t, nil
}

func (c *cli) exportCmd() *cobra.Command {
	var uploader, from, to, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an uploader's purchase history to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			uploaderID, err := parseID("uploader", uploader)
			if err != nil {
				return err
			}
			fromDate, err := parseDay("from", from)
			if err != nil {
				return err
			}
			toDate, err := parseDay("to", to)
			if err != nil {
				return err
			}
			if fromDate != nil && toDate != nil && toDate.Before(*fromDate) {
				return fmt.Errorf("--to is before --from")
			}

			a, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.Exporter.ExportHistoryXLSX(ctx, uploaderID, fromDate, toDate)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			_, err = fmt.Fprintf(c.out, "wrote %s (%d bytes)\n", output, len(data))
			return err
		},
	}
	cmd.Flags().StringVar(&uploader, "uploader", "", "uploader id (required)")
	cmd.Flags().StringVar(&from, "from", "", "first purchase date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last purchase date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&output, "output", "o", "purchases.xlsx", "output file")
	_ = cmd.MarkFlagRequired("uploader")
	return cmd
}
