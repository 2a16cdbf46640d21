package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage session-hook fragments",
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Write the configured hook fragments",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		results, err := svc.InstallHooks(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range results {
			switch {
			case !r.Changed:
				fmt.Printf("%s unchanged\n", r.Path)
			case r.BackupPath != "":
				fmt.Printf("%s installed (previous kept as %s)\n", r.Path, r.BackupPath)
			default:
				fmt.Printf("%s installed\n", r.Path)
			}
		}
		return nil
	},
}

var hooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed fragments in execution order",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		names, err := svc.ListHooks(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No hooks installed.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

func init() {
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksListCmd)
}
