// MindfulTube CLI - inspect and manage what the agents have learned
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/mindfultube/mindfultube/internal/agent"
	"github.com/mindfultube/mindfultube/internal/app"
	"github.com/mindfultube/mindfultube/internal/config"
	"github.com/mindfultube/mindfultube/internal/logging"
	"github.com/mindfultube/mindfultube/internal/storage"
)

var (
	// Config
	configPath string
	dataDir    string
	askPass    bool

	// Version
	version = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mt",
		Short: "MindfulTube - intentional YouTube, on your terms",
		Long: `MindfulTube watches how you search and watch, learns what you
value, and nudges you toward intentional viewing.

Everything the agents learn stays in your local store.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <data-dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&askPass, "passphrase", "p", false, "prompt for the store passphrase")

	// Commands
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(insightsCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(consentCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads config with the global flag overrides applied
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if dir := config.FlagOrString(cmd, "data-dir", ""); dir != "" {
		os.Setenv(config.EnvPrefix+"_DATA_DIR", dir)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if askPass && cfg.Storage.Passphrase == "" {
		fmt.Fprint(os.Stderr, "Store passphrase: ")
		pass, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("failed to read passphrase: %w", err)
		}
		cfg.Storage.Passphrase = string(pass)
	}

	// The CLI is short-lived and serves no /metrics
	cfg.Features.EnableMetrics = false
	return cfg, nil
}

// withApp opens the app for one command and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.SetLevel(logging.WARN)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// render writes v as JSON or YAML using its JSON field names
func render(w io.Writer, format string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "json":
		var out interface{}
		if err := json.Unmarshal(data, &out); err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml", "yml":
		var out interface{}
		if err := json.Unmarshal(data, &out); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(out)
	default:
		return fmt.Errorf("unknown format %q (json or yaml)", format)
	}
}

// initCmd writes a default config file
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			path := configPath
			if path == "" {
				path = config.DefaultPath(cfg.DataDir)
			}
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("Config already exists at %s\n", path)
				return nil
			}

			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Printf("Wrote %s\n", path)
			fmt.Println()
			fmt.Println("Secrets are never written to the file. Set them in the environment:")
			fmt.Printf("   %s_YOUTUBE_API_KEY       YouTube Data API key\n", config.EnvPrefix)
			fmt.Printf("   %s_STORAGE_PASSPHRASE    encrypt agent state at rest\n", config.EnvPrefix)
			return nil
		},
	}
}

// statusCmd shows settings and today's usage
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show settings and time usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				settings := a.Agent.Settings()
				u := a.Agent.Usage()

				agentState := "enabled"
				if !settings.Preferences.AgentEnabled {
					agentState = "disabled"
				}
				consent := "not answered"
				if settings.Consent.Version != "" {
					consent = "revoked"
					if settings.Consent.Granted {
						consent = "granted"
					}
				}

				fmt.Println("MindfulTube Status")
				fmt.Println()
				fmt.Printf("   Data:      %s (%s)\n", a.Config.DataDir, a.Config.Storage.Backend)
				fmt.Printf("   Provider:  %s\n", a.Provider.Name())
				fmt.Printf("   Agent:     %s\n", agentState)
				fmt.Printf("   Consent:   %s\n", consent)
				fmt.Println()
				fmt.Printf("   Today:     %.0f / %.0f min\n", u.TodayMinutes, u.Goals.DailyLimitMinutes)
				fmt.Printf("   This week: %.0f / %.0f min\n", u.WeeklyMinutes, u.Goals.WeeklyLimitMinutes)
				fmt.Printf("   Remaining: %.0f min\n", u.RemainingMinutes)
				if u.Recommendation.Message != "" {
					fmt.Printf("   %s\n", u.Recommendation.Message)
				}
				return nil
			})
		},
	}
}

// insightsCmd prints what the agents have learned
func insightsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show learned preferences, intents and knowledge gaps",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return render(cmd.OutOrStdout(), format, a.Agent.Insights())
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (json or yaml)")
	return cmd
}

// searchCmd runs a search through the agents
func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Run an intent-aware search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				resp := a.Agent.ProcessSearch(ctx, query)
				defer a.Agent.EndSession(ctx)

				if resp.Blocked {
					fmt.Println("Search blocked: time limit reached.")
					return nil
				}
				if resp.UseStandard {
					fmt.Println("No agent results, use standard search.")
					return nil
				}

				fmt.Printf("%s (%s)\n\n", resp.AgentMessage, resp.Intent)

				discoveries := make(map[int]agent.DiscoveryPlacement, len(resp.Discoveries))
				for _, d := range resp.Discoveries {
					discoveries[d.Position] = d
				}
				for i, item := range resp.Results {
					marker := " "
					if _, ok := discoveries[i]; ok {
						marker = "*"
					}
					fmt.Printf("%s %2d. %s\n", marker, i+1, item.Title)
					fmt.Printf("       %s  %s  https://www.youtube.com/watch?v=%s\n", item.ChannelTitle, item.Duration, item.ID)
				}
				if len(discoveries) > 0 {
					fmt.Println()
					fmt.Println("* discovery: bridges a topic you know to one you haven't explored")
				}
				return nil
			})
		},
	}
}

// resetCmd clears learned data
func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [agent]",
		Short: "Clear learned data for one agent, or all of them",
		Long: `Clears what the agents have learned. Settings are kept.

Agents: preference, usage, intent, discovery`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if len(args) == 1 {
					if err := a.Agent.ResetAgent(ctx, args[0]); err != nil {
						return err
					}
					fmt.Printf("Reset %s agent\n", args[0])
					return nil
				}

				if !a.Agent.ResetAgentData(ctx) {
					return errors.New("some agents failed to reset")
				}
				fmt.Println("Reset all agents")
				return nil
			})
		},
	}
}

// exportCmd dumps the raw stored state
func exportCmd() *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all stored agent state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				snapshot, err := storage.Snapshot(ctx, a.Store)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if out != "" {
					f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}

				if err := render(w, format, snapshot); err != nil {
					return err
				}
				if out != "" {
					fmt.Printf("Exported %d keys to %s\n", len(snapshot), out)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json or yaml)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

// consentCmd grants or revokes learning consent
func consentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consent",
		Short: "Manage consent for learning",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "grant",
		Short: "Allow the agents to learn from your activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Agent.GrantConsent(ctx); err != nil {
					return err
				}
				fmt.Println("Consent granted")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke",
		Short: "Stop learning and delete everything learned so far",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Agent.RevokeConsent(ctx); err != nil {
					return err
				}
				fmt.Println("Consent revoked, learned data deleted")
				return nil
			})
		},
	})

	return cmd
}

// versionCmd shows version
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show MindfulTube version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("MindfulTube %s\n", version)
		},
	}
}
