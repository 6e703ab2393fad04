package commands

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskdesk-dev/taskdesk/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd(opts *Options) *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init <server-url>",
		Short: "Add a taskdesk server to ./taskdesk.json",
		Long: `Add a taskdesk server to ./taskdesk.json, creating the file if needed.

Examples:
  $ taskdesk init http://localhost:8080
  $ taskdesk init https://tasks.example.com --alias production`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], alias)
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Alias for the server (defaults to production, then server-N)")

	return cmd
}

func runInit(opts *Options, serverURL, alias string) error {
	serverURL = strings.TrimRight(serverURL, "/")
	if !strings.Contains(serverURL, "://") {
		serverURL = "https://" + serverURL
	}
	if u, err := url.Parse(serverURL); err != nil || u.Host == "" {
		return fmt.Errorf("invalid server URL %q", serverURL)
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(opts.Out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	if _, err := cfg.GetServerByURL(serverURL); err == nil {
		fmt.Fprintf(opts.Out, "Server %s already exists in %s\n", serverURL, config.ConfigFileName)
	} else {
		if alias == "" {
			if len(cfg.Servers) == 0 {
				alias = "production"
			} else {
				alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
			}
		}
		if _, err := cfg.GetServerByAlias(alias); err == nil {
			return fmt.Errorf("alias '%s' is already used in %s", alias, config.ConfigFileName)
		}

		cfg.Servers = append(cfg.Servers, config.Server{
			URL:   serverURL,
			Alias: alias,
		})

		if err := config.Save(configPath, cfg); err != nil {
			return err
		}

		if isNewConfig {
			fmt.Fprintf(opts.Out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, serverURL, alias)
		} else {
			fmt.Fprintf(opts.Out, "✓ Added server %s (%s) to ./%s\n", serverURL, alias, config.ConfigFileName)
		}
	}

	fmt.Fprintln(opts.Out, "\nNext steps:")
	fmt.Fprintln(opts.Out, "  1. Run 'taskdesk register' to create an account, or")
	fmt.Fprintln(opts.Out, "  2. Run 'taskdesk login' to authenticate")

	return nil
}
