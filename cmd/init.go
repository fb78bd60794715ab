package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Lumos-Labs-HQ/tclone/internal/config"
	"github.com/Lumos-Labs-HQ/tclone/template"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter tclone.config.json",
	Long: `
Create tclone.config.json, the scratch directories and a .env with the
variables the config refers to.

Examples:
  tclone init
  tclone init --storage minio
  tclone init --storage local`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("storage")
		return initializeProject(template.ValidateStorageProvider(provider))
	},
}

func init() {
	initCmd.Flags().String("storage", "s3", "object store provider (s3, minio, local)")
	rootCmd.AddCommand(initCmd)
}

func initializeProject(provider template.StorageProvider) error {
	if _, err := os.Stat(config.FileName); err == nil {
		return fmt.Errorf("%s already exists", config.FileName)
	}

	tmpl := template.NewProjectTemplate(provider)

	directories := tmpl.GetDirectoryStructure()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(config.FileName, []byte(tmpl.GetConfig()), 0644); err != nil {
		return fmt.Errorf("failed to create file %s: %w", config.FileName, err)
	}

	if err := handleEnvFile(tmpl.GetEnvTemplate()); err != nil {
		return fmt.Errorf("failed to handle .env file: %w", err)
	}

	color.Green("✅ Initialized tclone with %s object storage", provider)
	fmt.Println()
	fmt.Println("📁 Directories created:")
	for _, dir := range directories {
		fmt.Printf("   %s/\n", dir)
	}
	fmt.Println()
	fmt.Println("📝 Configuration file created:")
	fmt.Printf("   %s\n", config.FileName)

	if os.Getenv("DATABASE_URL") != "" {
		fmt.Println()
		fmt.Println("ℹ️  Using existing DATABASE_URL from environment")
	}

	fmt.Println()
	fmt.Printf("🚀 Next steps:\n")
	fmt.Printf("   edit storage.tenant_bucket and storage.clone_bucket\n")
	fmt.Printf("   tclone dump <source-host>\n")
	fmt.Printf("   tclone restore <clone-id> <target-host>\n")
	return nil
}

// handleEnvFile writes .env, or appends the variables it lacks.
func handleEnvFile(defaultEnvContent string) error {
	envPath := ".env"

	existingContent, err := os.ReadFile(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return os.WriteFile(envPath, []byte(defaultEnvContent), 0644)
		}
		return err
	}

	existingStr := string(existingContent)
	var missing []string
	for _, line := range strings.Split(strings.TrimSpace(defaultEnvContent), "\n") {
		name, _, _ := strings.Cut(line, "=")
		if !strings.Contains(existingStr, name+"=") {
			missing = append(missing, line)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if len(existingStr) > 0 && !strings.HasSuffix(existingStr, "\n") {
		existingStr += "\n"
	}
	existingStr += "\n# Added by tclone\n" + strings.Join(missing, "\n") + "\n"

	return os.WriteFile(envPath, []byte(existingStr), 0644)
}
