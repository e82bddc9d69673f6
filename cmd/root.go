// Package cmd provides command-line interface functionality for discfix.
// discfix repairs the subchannel of CD dumps and verifies or rebuilds the
// EDC/ECC of raw sector images.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/config"
)

// cfg holds the configuration loaded before any subcommand runs.
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "discfix",
	Short: "Repair CD subchannel data and sector EDC/ECC",
	Long: `discfix - tools for cleaning up raw CD dumps.

Currently supports:
  - Subchannel files (.sub): repair P, Q and R-W, reposition blocks, track pregaps, MCN and ISRC
  - Raw sector images (.bin): verify and rebuild sync, header, EDC and ECC

Examples:
  discfix sub fix disc.sub fixed.sub --layout layout.yaml --fix
  discfix sub scan disc.sub --yaml q.yaml
  discfix ecc verify disc.bin
  discfix ecc rebuild track.bin rebuilt.bin --type mode1

Use 'discfix [command] --help' for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return fmt.Errorf("error getting config flag: %w", err)
		}
		loaded, _, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		setupLogging(cmd.ErrOrStderr(), cfg, verbose)
		return nil
	},
}

// setupLogging installs the console logger at the configured verbosity.
func setupLogging(w io.Writer, c *config.Config, verbose bool) {
	level := c.Verbosity()
	if verbose && level < common.LevelDebug {
		level = common.LevelDebug
	}
	common.SetVerboseMode(level >= common.LevelDebug)
	common.SetLogger(common.NewConsoleLogger(w, level, useColor(w, c.Logging.Color)))
}

func useColor(w io.Writer, mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main() and serves as the entry point for command execution.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		common.LogError("%v", err)
		os.Exit(1)
	}
}

// init initializes the root command with the flags shared by every command.
func init() {
	rootCmd.PersistentFlags().String("config", "", "TOML configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output (show debug messages)")
}
