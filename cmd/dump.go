package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <source-host>",
	Short: "Snapshot a tenant into the clone bucket",
	Long: `
Dump the schema of the tenant serving <source-host>, upload it together with
the tenant row, and copy the tenant's files into the clone bucket.

The printed clone id is what 'tclone restore' takes.

Examples:
  tclone dump demo.localhost
  tclone dump demo.localhost --workers 8`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		workers, _ := cmd.Flags().GetInt("workers")
		res, err := s.orchestrator(false, workers).Export(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Println()
		color.Green("✅ Clone created")
		fmt.Printf("   Clone id:  %s\n", color.New(color.Bold).Sprint(res.CloneID))
		fmt.Printf("   Tenant:    %s (%s)\n", res.Host, res.TenantID)
		fmt.Printf("   Schema:    %s (%d bytes)\n", res.Schema, res.DumpBytes)
		fmt.Printf("   Files:     %d copied\n", res.Files)
		if len(res.Skipped) > 0 {
			color.Yellow("   ⚠️  %d files vanished while copying", len(res.Skipped))
		}
		return nil
	},
}

func init() {
	dumpCmd.Flags().Int("workers", 0, "concurrent file copies (default from clone.workers)")
	rootCmd.AddCommand(dumpCmd)
}
