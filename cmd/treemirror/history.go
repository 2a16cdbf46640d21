package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Treemirror/internal/progress"
	"github.com/Ning0612/Treemirror/internal/state"
)

var (
	historyLimit int
	historyRun   string
	historyLast  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [job]",
	Short: "Show recent runs",
	Long: `Show recent runs, newest first.

  treemirror history               all jobs
  treemirror history dotfiles      one job
  treemirror history --last config last successful run of a job
  treemirror history --run 3f2a... every job of one run`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job := ""
		if len(args) == 1 {
			job = args[0]
		}
		if historyLast && job == "" {
			return fmt.Errorf("--last needs a job name")
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		var records []state.ExecutionRecord
		switch {
		case historyRun != "":
			records, err = svc.Run(historyRun)
		case historyLast:
			var last *state.ExecutionRecord
			last, err = svc.LastSuccess(job)
			if last != nil {
				records = []state.ExecutionRecord{*last}
			}
		default:
			records, err = svc.History(job, historyLimit)
		}
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		for _, r := range records {
			printRecord(r)
		}
		return nil
	},
}

func printRecord(r state.ExecutionRecord) {
	fmt.Printf("%s  %s  %-16s %-8s %d installed, %d protected, %d backups, %s in %s\n",
		r.StartTime.Local().Format("2006-01-02 15:04:05"),
		shortID(r.RunID),
		r.JobName,
		r.Status,
		r.Installed,
		r.Protected,
		r.Backups,
		progress.FormatBytes(r.Bytes),
		r.Duration().Round(time.Millisecond),
	)
	if r.Error != "" {
		fmt.Printf("    %s\n", r.Error)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to show")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "show every job of one run (full run id)")
	historyCmd.Flags().BoolVar(&historyLast, "last", false, "show only the last successful run of the job")
}
