package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/ttytest/internal/config"
)

func newConfigCmd(v *viper.Viper) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View ttytest configuration",
		Long: `View ttytest configuration.

Settings come from, in increasing priority: built-in defaults, the config
file, TTYTEST_* environment variables (TTYTEST_STDERR_MODE for stderr.mode)
and command-line flags.`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, v)
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigFile())
			return nil
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Long:  `Create a default config file at ~/.config/ttytest/config.yaml.`,
		RunE:  runConfigInit,
	})

	return configCmd
}

func runConfigShow(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	if used := v.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "# config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "# config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(settings(cfg))
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigFile()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(settings(config.Default()))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
	return nil
}

// settings lays cfg out under its config keys, in file order.
func settings(cfg *config.Config) *yaml.Node {
	section := func(name string, kv ...any) []*yaml.Node {
		body := &yaml.Node{Kind: yaml.MappingNode}
		for i := 0; i < len(kv); i += 2 {
			var value yaml.Node
			_ = value.Encode(kv[i+1])
			body.Content = append(body.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: kv[i].(string)},
				&value,
			)
		}
		return []*yaml.Node{{Kind: yaml.ScalarNode, Value: name}, body}
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content, section("launch",
		"mode", cfg.Launch.Mode,
		"encoding", cfg.Launch.Encoding,
		"dir", cfg.Launch.Dir,
		"rows", cfg.Launch.Rows,
		"cols", cfg.Launch.Cols,
	)...)
	root.Content = append(root.Content, section("stderr",
		"mode", cfg.Stderr.Mode,
	)...)
	root.Content = append(root.Content, section("wait",
		"timeout_ms", cfg.Wait.TimeoutMs,
		"delay_ms", cfg.Wait.DelayMs,
	)...)
	root.Content = append(root.Content, section("logging",
		"debug", cfg.Logging.Debug,
		"level", cfg.Logging.Level,
		"dir", cfg.Logging.Dir,
	)...)
	return root
}
