// Package main is the entry point for the interleave CLI, which inserts a
// blank page after every page of the given PDFs.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "interleave [files | dirs | gs://bucket/prefix ...]",
	Short: "Insert a blank page after every page of PDF files",
	Long: `interleave reads PDF files from local paths or Cloud Storage and writes,
for each one, a copy with a blank page inserted after every page.

Directories and gs:// prefixes contribute every .pdf they contain. Files are
processed concurrently; a file that cannot be parsed is reported as FAILED and
never stops the others. The exit status is 1 if any file failed.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if viper.GetBool("verbose") {
			level = slog.LevelInfo
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := optionsFromViper()
		if err != nil {
			return err
		}
		return run(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./interleave.yaml or ~/.config/interleave/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log pipeline events to stderr")

	rootCmd.Flags().StringP("out", "o", "interleaved", "output directory or gs://bucket/prefix")
	rootCmd.Flags().String("naming", "timestamp", "output naming: timestamp or suffix")
	rootCmd.Flags().String("blank-size", "", "paper size of inserted blank pages, e.g. A4 or Letter")
	rootCmd.Flags().Int("concurrency", 10, "maximum number of files transformed at once")
	rootCmd.Flags().Bool("optimize", false, "run the PDF optimizer over every output")

	for _, name := range []string{"out", "naming", "blank-size", "concurrency", "optimize"} {
		_ = viper.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("interleave")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "interleave"))
		}
	}

	viper.SetEnvPrefix("INTERLEAVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
