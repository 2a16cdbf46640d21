package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Treemirror/internal/lock"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect or clear the run lock",
}

var lockStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who holds the run lock",
	RunE: func(cmd *cobra.Command, args []string) error {
		fileLock, err := lock.NewFileLock(cfg.GetStateDir())
		if err != nil {
			return err
		}

		holder, err := fileLock.GetHolder()
		switch {
		case errors.Is(err, os.ErrNotExist):
			fmt.Println("Not locked.")
			return nil
		case errors.Is(err, lock.ErrStale):
			fmt.Printf("Stale lock at %s (holder is gone); it will be replaced by the next run.\n", fileLock.Path())
			return nil
		case err != nil:
			return err
		}

		fmt.Printf("Locked by PID %d on %s since %s (job: %s)\n",
			holder.PID, holder.Hostname, holder.StartTime.Local().Format(time.DateTime), holder.JobName)
		return nil
	},
}

var lockReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Remove the run lock",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		fileLock, err := lock.NewFileLock(cfg.GetStateDir())
		if err != nil {
			return err
		}

		if fileLock.IsLocked() && !force {
			return fmt.Errorf("lock is held by a live process; use --force if it is stuck")
		}
		if err := fileLock.ForceRelease(); err != nil {
			return err
		}
		fmt.Println("Lock released.")
		return nil
	},
}

func init() {
	lockReleaseCmd.Flags().Bool("force", false, "remove the lock even if its holder looks alive")
	lockCmd.AddCommand(lockStatusCmd)
	lockCmd.AddCommand(lockReleaseCmd)
}
