package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"GanttGen/internal/domain/models"
	"GanttGen/internal/services/layout"
	"GanttGen/pkg/util"

	"github.com/spf13/cobra"
)

func newMarkerCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "marker [column...]",
		Short: "Print where the today line falls on a time axis",
		Long: `Resolves a date against time column labels and prints the marker position
as JSON, or null when the date is outside the axis.

Example:
  ganttgen marker --date 2025-11-13 "Oct 2025" "Nov 2025" "Dec 2025"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseDateFlag(date)
			if err != nil {
				return err
			}

			var columns []string
			for _, a := range args {
				columns = append(columns, strings.Split(a, ",")...)
			}
			return writeJSON(cmd.OutOrStdout(), layout.New().TodayMarker(columns, ref))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "reference date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newLayoutCmd() *cobra.Command {
	var (
		file  string
		today string
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the grid layout of a chart JSON document",
		Long: `Reads chart JSON (title, timeColumns, data) from --file or stdin and prints
the grid placement of every row and the today marker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := parseDateFlag(today)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var chart models.ChartData
			if err := json.NewDecoder(in).Decode(&chart); err != nil {
				return fmt.Errorf("decode chart: %w", err)
			}

			grid, err := layout.New().Layout(&chart, ref)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), grid)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "chart JSON file, - or empty for stdin")
	cmd.Flags().StringVar(&today, "today", "", "reference date (YYYY-MM-DD), defaults to today")
	return cmd
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, ok := util.ParseDate(s)
	if !ok {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
