package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Treemirror/internal/config"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List configured jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}

		fmt.Printf("Config: %s\n", config.ConfigFileUsed(configPath))
		if len(cfg.Jobs) == 0 {
			fmt.Println("No jobs configured.")
			return nil
		}

		for _, j := range cfg.Jobs {
			mode, _ := config.ParseMode(string(j.Mode))
			flags := ""
			if !j.IsEnabled() {
				flags += " [disabled]"
			}
			if j.BestEffort {
				flags += " [best-effort]"
			}
			fmt.Printf("%-16s %04o  %s -> %s%s\n", j.Name, mode, j.Source, j.Target, flags)
			if len(j.Protected) > 0 {
				fmt.Printf("%-16s protected: %v\n", "", j.Protected)
			}
		}
		return nil
	},
}
