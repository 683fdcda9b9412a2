package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ganttgen",
		Short: "GanttGen - research documents to Gantt charts",
		Long: `GanttGen turns uploaded research documents into a Gantt chart with the
help of an LLM, and answers follow-up questions about individual tasks.

Run "ganttgen serve" to start the HTTP API.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newMarkerCmd(), newLayoutCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
