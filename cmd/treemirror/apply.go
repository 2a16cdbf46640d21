package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Treemirror/internal/domain"
	"github.com/Ning0612/Treemirror/internal/progress"
	"github.com/Ning0612/Treemirror/internal/service"
)

var applyCmd = &cobra.Command{
	Use:   "apply [job...]",
	Short: "Run mirror jobs (all enabled jobs by default) and install session hooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		noHooks, _ := cmd.Flags().GetBool("no-hooks")
		verbose, _ := cmd.Flags().GetBool("verbose")

		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		if verbose {
			svc.SetProgressReporter(progress.NewLineReporter(os.Stdout))
		}

		report, runErr := svc.RunAll(cmd.Context(), args...)
		if report != nil {
			for _, jr := range report.Jobs {
				printJobReport(jr)
			}
		}
		if runErr != nil {
			return runErr
		}

		if noHooks || len(args) > 0 {
			return nil
		}
		results, err := svc.InstallHooks(cmd.Context())
		if err != nil {
			return fmt.Errorf("installing hooks: %w", err)
		}
		for _, r := range results {
			if r.Changed {
				fmt.Printf("hook %s installed\n", r.Path)
			}
		}

		if failed := report.Failed(); len(failed) > 0 {
			fmt.Printf("%d best-effort job(s) failed\n", len(failed))
		}
		return nil
	},
}

func printJobReport(jr service.JobReport) {
	switch {
	case jr.Err != nil:
		fmt.Printf("%s: FAILED: %v\n", jr.Job, jr.Err)
	case jr.Result.Skipped:
		fmt.Printf("%s: skipped (%s)\n", jr.Job, jr.Result.SkipReason)
	default:
		printResult(jr.Result)
	}
}

func printResult(res *domain.MirrorResult) {
	fmt.Printf("%s: %d installed, %d protected, %d missing, %d backups (%s)\n",
		res.JobName,
		res.Count(domain.OutcomeInstalled),
		res.Count(domain.OutcomeSkippedProtected),
		res.Count(domain.OutcomeSkippedMissing),
		res.Backups(),
		progress.FormatBytes(res.BytesInstalled()),
	)
}

func init() {
	applyCmd.Flags().Bool("no-hooks", false, "do not install session hooks")
	applyCmd.Flags().BoolP("verbose", "v", false, "print every installed file")
}
