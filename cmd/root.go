package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"linkhive/internal/app"
	"linkhive/internal/config"
)

var rootUser string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "linkhive",
	Short: "Save, organize and search links",
	Long: `LinkHive is a place to save links for later. Saved links get page
previews fetched and are filed into collections automatically based on
what they are about.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that never touch storage skip app initialization.
		switch cmd.Name() {
		case "help", "version", "completion":
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		appInstance, err := app.NewApp(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
}

type contextKey string

const appKey contextKey = "app"

// GetAppFromContext retrieves the initialized app instance stored by
// the root command's PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application not found in context; initialization failed")
	}
	return appInstance, nil
}

// actingUser resolves the user every command operates as: the --user
// flag when given, otherwise the configured default.
func actingUser(appInstance *app.App) string {
	if rootUser != "" {
		return rootUser
	}
	return appInstance.Config.API.DefaultUser
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// doctorCmd checks that the configured stores are reachable.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and store connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		ok := color.New(color.FgGreen).SprintFunc()
		bad := color.New(color.FgRed).SprintFunc()

		mode := "sqlite (local)"
		if appInstance.Config.PostgresMode() {
			mode = "postgres"
		}
		fmt.Printf("Mode:        %s\n", mode)

		if err := appInstance.LinkStore.Ping(cmd.Context()); err != nil {
			fmt.Printf("Store:       %s (%v)\n", bad("unreachable"), err)
			return fmt.Errorf("store ping failed: %w", err)
		}
		fmt.Printf("Store:       %s\n", ok("reachable"))

		if appInstance.JobClient != nil {
			fmt.Printf("Job queue:   %s\n", ok("configured"))
		} else {
			fmt.Printf("Job queue:   disabled (inline processing)\n")
		}
		if appInstance.EmbeddingService != nil {
			fmt.Printf("Embeddings:  %s (%s)\n", ok("enabled"), appInstance.EmbeddingService.ModelName())
		} else {
			fmt.Printf("Embeddings:  disabled\n")
		}
		fmt.Printf("Categorizer: %s\n", appInstance.Categorizer.Name())

		stats, err := appInstance.LinkService.Stats(cmd.Context(), actingUser(appInstance))
		if err != nil {
			return fmt.Errorf("failed to read link stats: %w", err)
		}
		fmt.Printf("Links:       %d total, %d unfiled, %d collections\n",
			stats.TotalLinks, stats.Unfiled, len(stats.Collections))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootUser, "user", "u", "", "Act as this user (default from config)")

	rootCmd.AddCommand(doctorCmd)
}
