// Package commands implements the CLI commands for paperscan.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "paperscan",
	Short: "LLM-powered field extraction from scientific papers",
	Long: `Paperscan extracts structured fields from scientific-paper PDFs using LLMs.

Define the fields you want in a CSV or YAML schema, point it at PDFs,
and get one CSV row per field with value, provenance page, and
bounding box.

Examples:
  # Extract fields from a single paper
  paperscan extract -s fields.csv paper.pdf

  # Several papers into one spreadsheet
  paperscan extract -s fields.csv -o results.xlsx --format xlsx papers/*.pdf

  # Use OpenRouter with a specific model
  paperscan extract -s fields.csv -p openrouter -m google/gemini-2.5-flash paper.pdf

  # Use local Ollama (text-only fallback)
  paperscan extract -s fields.csv -p ollama -m llama3.2 paper.pdf`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.paperscan.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".paperscan")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("PAPERSCAN")
	viper.AutomaticEnv()

	// Also check common API key env vars
	_ = viper.BindEnv("api_key", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
