package cmd

import (
	"fmt"
	"os"

	"github.com/Lumos-Labs-HQ/tclone/internal/history"
	"github.com/Lumos-Labs-HQ/tclone/internal/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent dump and restore runs",
	Long: `
Show the runs recorded in the local history ledger, newest first.

Examples:
  tclone history
  tclone history --limit 5 --yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.History.Enabled {
			color.Yellow("History is disabled (history.enabled = false)")
			return nil
		}

		ctx := cmd.Context()
		ledger, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			return err
		}
		defer ledger.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := ledger.List(ctx, limit)
		if err != nil {
			return err
		}

		if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded yet")
			return nil
		}

		for _, run := range runs {
			printRun(run)
		}
		return nil
	},
}

func printRun(run types.RunRecord) {
	status := color.GreenString("✅")
	if run.Status == types.RunFailed {
		status = color.RedString("❌")
	}

	fmt.Printf("%s %-6s %s  %s  %s\n",
		status,
		run.Kind,
		run.StartedAt.Local().Format("2006-01-02 15:04:05"),
		run.Host,
		color.New(color.Faint).Sprint(run.CloneID),
	)
	if run.Status == types.RunFailed {
		color.Red("     %s", run.Error)
		return
	}
	fmt.Printf("     tenant %s, %d identifiers, %d files", run.TenantID, run.Identifiers, run.Files)
	if run.Skipped > 0 {
		fmt.Printf(", %d skipped", run.Skipped)
	}
	fmt.Println()
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to show (0 for all)")
	historyCmd.Flags().Bool("yaml", false, "print runs as YAML")
	rootCmd.AddCommand(historyCmd)
}
