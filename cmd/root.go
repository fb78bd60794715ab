package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════════╗",
		"║   ████████╗ ██████╗██╗      ██████╗ ███╗   ██╗   ║",
		"║   ╚══██╔══╝██╔════╝██║     ██╔═══██╗████╗  ██║   ║",
		"║      ██║   ██║     ██║     ██║   ██║██╔██╗ ██║   ║",
		"║      ██║   ██║     ██║     ██║   ██║██║╚██╗██║   ║",
		"║      ██║   ╚██████╗███████╗╚██████╔╝██║ ╚████║   ║",
		"║      ╚═╝    ╚═════╝╚══════╝ ╚═════╝ ╚═╝  ╚═══╝   ║",
		"║                                                  ║",
		"║        Tenant snapshots: schema • row • files    ║",
		"╚══════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                 ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "tclone",
	Short: "Clone a tenant's schema, tenant row and files under new identifiers",
	Long: `
tclone snapshots a tenant of a schema-per-tenant Postgres application and
restores the snapshot as a brand new tenant.

A clone holds three things:
- a pg_dump of the tenant's schema
- the tenant's row from the tenant table
- a copy of the tenant's uploaded files

On restore every UUID primary key in the dump is replaced by a fresh one,
the schema is renamed after the target host, and file paths are rewritten
to match.`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("tclone version %s\n", Version)
			os.Exit(0)
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

// Execute runs the CLI. Ctrl-C cancels the running command's context so
// child processes stop and scratch files are removed.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tclone.config.json)")
	rootCmd.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("tclone.config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		// fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
