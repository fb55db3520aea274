package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ppiankov/assignparse/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the release reported by the version command.
var Version = "v0.1.0"

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "assignparse",
	Short: "assignparse - extract structured records from insurance assignment emails",
	Long: `assignparse turns free-form insurance assignment emails into a fixed,
schema-validated JSON record.

Every record has the same shape: fields that cannot be found hold "N/A",
checkboxes default to false and attachments to an empty list.

Strategies:
  rule_based   section segmentation and per-field patterns (default)
  hybrid       rule_based plus entity recognition, fuzzy fill and rules
  local_llm    a local completion endpoint (LOCAL_LLM_API_ENDPOINT)
  llm          a hosted model (OPENAI_API_KEY)

Failed strategies fall back once to their declared fallback.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "assignparse %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.assignparse/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		v.SetConfigFile(path)
	}

	// ASSIGNPARSE_* environment variables
	config.Configure(v)

	if err := v.ReadInConfig(); err != nil {
		// An explicit --config must exist; the default location is optional.
		if cfgFile != "" || !errors.Is(err, fs.ErrNotExist) {
			configErr = err
		}
		return
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}
}
