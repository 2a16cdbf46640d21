package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Treemirror/internal/domain"
	"github.com/Ning0612/Treemirror/internal/progress"
	"github.com/Ning0612/Treemirror/internal/service"
)

var planCmd = &cobra.Command{
	Use:   "plan [job...]",
	Short: "Show what apply would do without writing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")

		if err := requireConfig(); err != nil {
			return err
		}

		names := args
		if len(names) == 0 {
			for _, j := range cfg.GetEnabledJobs() {
				names = append(names, j.Name)
			}
		}

		for _, name := range names {
			plan, err := service.PlanJob(cmd.Context(), cfg, name)
			if err != nil {
				return err
			}
			printPlan(plan, verbose)
		}
		return nil
	},
}

func printPlan(plan *domain.MirrorPlan, verbose bool) {
	if plan.Skipped {
		fmt.Printf("%s: skipped (%s)\n", plan.JobName, plan.SkipReason)
		return
	}

	s := plan.Stats
	fmt.Printf("%s: %d files, %d to install (%d identical), %d backups, %d protected, %s\n",
		plan.JobName, s.TotalFiles, s.FilesToInstall, s.Identical, s.Backups, s.Protected, progress.FormatBytes(s.BytesToCopy))

	if !verbose {
		return
	}
	for _, a := range plan.Actions {
		marker := "+"
		switch {
		case a.Type == domain.ActionSkipProtected:
			marker = "!"
		case a.Backup:
			marker = "~"
		}
		fmt.Printf("  %s %s  (%s)\n", marker, a.Entry.RelPath, a.Reason)
	}
}

func init() {
	planCmd.Flags().BoolP("verbose", "v", false, "list every planned action")
}
