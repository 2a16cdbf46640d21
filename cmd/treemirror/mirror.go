package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Ning0612/Treemirror/internal/config"
	"github.com/Ning0612/Treemirror/internal/core/mirror"
	"github.com/Ning0612/Treemirror/internal/core/protect"
	"github.com/Ning0612/Treemirror/internal/domain"
	"github.com/Ning0612/Treemirror/internal/lock"
	"github.com/Ning0612/Treemirror/internal/logger"
	"github.com/Ning0612/Treemirror/internal/progress"
)

// modeValue accepts "data", "executable" or an octal mode
type modeValue fs.FileMode

func (m *modeValue) String() string { return fmt.Sprintf("%04o", fs.FileMode(*m)) }

func (m *modeValue) Set(s string) error {
	mode, err := config.ParseMode(s)
	if err != nil {
		return err
	}
	*m = modeValue(mode)
	return nil
}

func (m *modeValue) Type() string { return "mode" }

var _ pflag.Value = (*modeValue)(nil)

var (
	mirrorMode    = modeValue(domain.ModeData)
	mirrorProtect []string
	mirrorIgnore  []string
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror SOURCE TARGET",
	Short: "Mirror one tree without a config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")

		job := domain.MirrorJob{
			Name:       "mirror",
			SourceRoot: config.ExpandPath(args[0]),
			DestRoot:   config.ExpandPath(args[1]),
			FileMode:   fs.FileMode(mirrorMode),
			Protection: protect.None(),
			Ignore:     mirrorIgnore,
		}
		if len(mirrorProtect) > 0 {
			home, err := cfg.HomeDir()
			if err != nil {
				return fmt.Errorf("resolving home directory: %w", err)
			}
			job.Protection = protect.NewHomeNames(home, mirrorProtect)
		}

		fileLock, err := lock.NewFileLock(cfg.GetStateDir())
		if err != nil {
			return err
		}
		if err := fileLock.Acquire(job.Name); err != nil {
			return err
		}
		defer func() {
			if err := fileLock.Release(); err != nil {
				logger.Get().Error("failed to release run lock", "error", err)
			}
		}()

		var opts []mirror.Option
		if verbose {
			opts = append(opts, mirror.WithReporter(progress.NewLineReporter(os.Stdout)))
		}

		res, err := mirror.New(opts...).Mirror(cmd.Context(), job)
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Printf("%s: skipped (%s)\n", job.SourceRoot, res.SkipReason)
			return nil
		}
		printResult(res)
		return nil
	},
}

func init() {
	mirrorCmd.Flags().Var(&mirrorMode, "mode", `file mode: "data" (0644), "executable" (0755) or octal`)
	mirrorCmd.Flags().StringSliceVar(&mirrorProtect, "protect", nil, "file names never overwritten when TARGET is the home directory")
	mirrorCmd.Flags().StringSliceVar(&mirrorIgnore, "ignore", nil, "glob patterns to skip")
	mirrorCmd.Flags().BoolP("verbose", "v", false, "print every installed file")
}
