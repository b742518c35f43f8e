package cli

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fontmeta/internal/config"
)

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the fontmeta configuration",
	}

	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())

	return cmd
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.configPath != "" {
				fmt.Println(c.configPath)
				return nil
			}
			path, err := config.DefaultPath()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			fmt.Println(path)
			return nil
		},
	}
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			source := path + " (not found, using defaults)"
			if exists {
				source = path
			}
			printKeyValue("Config", source)
			fmt.Println(renderConfig(cfg, shouldStyle(cmd.OutOrStdout())))
			return nil
		},
	}
}

// renderConfig renders the effective settings as a key/value table.
func renderConfig(cfg *config.Config, styled bool) string {
	tw := table.NewWriter()
	if styled {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
		tw.Style().Options.DrawBorder = false
	}

	redisURL := cfg.Cache.RedisURL
	if redisURL != "" {
		redisURL = "(set)"
	}

	tw.AppendHeader(table.Row{"Key", "Value"})
	tw.AppendRows([]table.Row{
		{"metadata.url_template", cfg.Metadata.URLTemplate},
		{"metadata.timeout", cfg.Metadata.Timeout},
		{"metadata.retries", strconv.Itoa(cfg.Metadata.Retries)},
		{"metadata.retry_delay", cfg.Metadata.RetryDelay},
		{"metadata.user_agent", orDash(cfg.Metadata.UserAgent)},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"cache.backend", cfg.Cache.Backend},
		{"cache.ttl", cfg.Cache.TTL},
		{"cache.dir", orDash(cfg.Cache.Dir)},
		{"cache.redis_url", orDash(redisURL)},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"annotate.style", cfg.Annotate.Style},
		{"annotate.source", cfg.Annotate.Source},
		{"annotate.lock_timeout", cfg.Annotate.LockTimeout},
	})
	return tw.Render()
}
