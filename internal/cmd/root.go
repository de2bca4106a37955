package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/ttytest/internal/config"
)

var rootCmd = newRootCmd(viper.GetViper())

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// newRootCmd builds the command tree around v, so tests can run it against
// a fresh viper instance.
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "ttytest",
		Short: "Drive a command and wait for its output",
		Long: `ttytest starts a command, records everything it writes to stdout and
stderr, and waits for expected output, either from --wait-for flags or from
a YAML script of steps. Output on stderr fails the run unless stderr is
collected.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
	}

	// Global flags
	root.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/ttytest/config.yaml)")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.AddCommand(newRunCmd(v))
	root.AddCommand(newConfigCmd(v))
	return root
}

func initConfig(v *viper.Viper) error {
	// Set defaults first so they're available even without a config file
	config.SetDefaults(v)

	// The CLI has no fork helpers registered
	v.SetDefault("launch.mode", "spawn")

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(config.ConfigDir())
		v.AddConfigPath(".")

		// Read config file if it exists (ignore error if not found)
		_ = v.ReadInConfig()
	}

	// e.g., TTYTEST_STDERR_MODE for stderr.mode
	config.BindEnv(v)
	return nil
}
