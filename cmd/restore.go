package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <clone-id> <target-host>",
	Short: "Restore a clone as a new tenant",
	Long: `
Restore a clone created by 'tclone dump' as a new tenant serving <target-host>.

Every UUID primary key in the dump is replaced by a fresh one. The schema is
renamed after the target host, a new tenant row is inserted and the files are
copied back under the new tenant id.

⚠️  --replace drops the target schema and tenant row first!

Examples:
  tclone restore 0b5f0c7e-5a57-4e55-9d43-3f1b0d0a2a11 acme.localhost
  tclone restore 0b5f0c7e-5a57-4e55-9d43-3f1b0d0a2a11 acme.localhost --replace`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		replace, _ := cmd.Flags().GetBool("replace")
		workers, _ := cmd.Flags().GetInt("workers")

		res, err := s.orchestrator(replace, workers).Import(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Println()
		color.Green("✅ Tenant restored")
		fmt.Printf("   Tenant id:    %s\n", color.New(color.Bold).Sprint(res.TenantID))
		fmt.Printf("   Host:         %s (from %s)\n", res.Host, res.SourceHost)
		fmt.Printf("   Schema:       %s\n", res.Schema)
		fmt.Printf("   Identifiers:  %d remapped\n", res.Identifiers)
		fmt.Printf("   Files:        %d copied\n", res.Files)
		if len(res.Skipped) > 0 {
			color.Yellow("   ⚠️  %d files vanished while copying", len(res.Skipped))
		}
		for _, w := range res.Warnings {
			color.Yellow("   ⚠️  %s", w)
		}
		return nil
	},
}

func init() {
	restoreCmd.Flags().Bool("replace", false, "drop an existing tenant on the target host first")
	restoreCmd.Flags().Int("workers", 0, "concurrent file copies (default from clone.workers)")
	rootCmd.AddCommand(restoreCmd)
}
