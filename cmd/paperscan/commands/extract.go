package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paperscan/paperscan/internal/logger"
	"github.com/paperscan/paperscan/internal/output"
	"github.com/paperscan/paperscan/pkg/paperscan"
	"github.com/paperscan/paperscan/pkg/prompt"
	"github.com/paperscan/paperscan/pkg/schema"
)

var extractCmd = &cobra.Command{
	Use:   "extract [flags] PDF...",
	Short: "Extract schema fields from paper PDFs",
	Long: `Extract structured fields from scientific-paper PDFs using an LLM.

The schema file defines what to extract. It can be CSV or YAML with one
entry per field: name, description, kind (categorical, number, text),
and whether the field may be inferred rather than literally found.

Each field yields one output row carrying the value, how it was matched
(found, inferred, not_found), an optional comment, and where in the
document it was located.

Examples:
  # Single paper to stdout
  paperscan extract -s fields.csv paper.pdf

  # Batch of papers into a spreadsheet
  paperscan extract -s fields.csv -o results.xlsx --format xlsx papers/*.pdf

  # Detailed template: point coordinates and unit normalization
  paperscan extract -s fields.csv --template extended paper.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()

	flags.StringP("schema", "s", "", "path to schema file (required)")

	// LLM settings
	flags.StringP("provider", "p", "", "LLM provider: openrouter, openai, anthropic, ollama (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "csv", "output format: csv, xlsx")

	// Prompt settings
	flags.String("template", "basic", "instruction template: basic, extended")
	flags.Int("batch", 20, "schema fields per model request")

	// Request settings
	flags.Duration("timeout", 2*time.Minute, "per-request timeout")
	flags.Int("max-retries", 3, "max attempts per model request")
	flags.Int("rate-limit", 0, "max model requests per minute (0=unlimited)")
	flags.Float64("temperature", 0.1, "model temperature")
	flags.Int("max-tokens", 8192, "reply token cap")

	// Document settings
	flags.String("max-pdf-size", "32MB", "max accepted PDF size (e.g., 32MB, 0=unlimited)")
	flags.IntP("concurrency", "c", 3, "documents processed in parallel")

	_ = extractCmd.MarkFlagRequired("schema")

	// Bind to viper
	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load schema
	schemaPath, _ := cmd.Flags().GetString("schema")
	logger.Debug("loading schema", "path", schemaPath)
	s, err := schema.FromFile(schemaPath)
	if err != nil {
		logger.Error("failed to load schema", "error", err)
		return err
	}
	logger.Debug("schema loaded", "fields", s.Len())

	// Parse template variant
	templateStr, _ := cmd.Flags().GetString("template")
	variant, err := prompt.ParseVariant(templateStr)
	if err != nil {
		logger.Error("invalid template", "error", err)
		return err
	}

	// Parse output format
	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		logger.Error("invalid format", "error", err)
		return err
	}

	// Parse max PDF size (0 or empty means unlimited)
	maxPDFSizeStr, _ := cmd.Flags().GetString("max-pdf-size")
	var maxPDFSize int64
	if strings.TrimSpace(maxPDFSizeStr) != "" && maxPDFSizeStr != "0" {
		bytes, err := humanize.ParseBytes(maxPDFSizeStr)
		if err != nil {
			logger.Error("invalid max-pdf-size", "value", maxPDFSizeStr, "error", err)
			return err
		}
		maxPDFSize = int64(bytes)
	}

	batchSize, _ := cmd.Flags().GetInt("batch")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	rateLimit, _ := cmd.Flags().GetInt("rate-limit")
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	p, err := paperscan.New(
		paperscan.WithProvider(viper.GetString("provider")),
		paperscan.WithModel(viper.GetString("model")),
		paperscan.WithAPIKey(viper.GetString("api_key")),
		paperscan.WithBaseURL(viper.GetString("base_url")),
		paperscan.WithVariant(variant),
		paperscan.WithBatchSize(batchSize),
		paperscan.WithTimeout(timeout),
		paperscan.WithMaxRetries(maxRetries),
		paperscan.WithRateLimit(rateLimit),
		paperscan.WithTemperature(temperature),
		paperscan.WithMaxTokens(maxTokens),
		paperscan.WithConcurrency(concurrency),
		paperscan.WithMaxDocumentSize(maxPDFSize),
	)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return err
	}

	// Setup output
	outFile := os.Stdout
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		outFile = f
	}

	writer, err := output.NewWriter(outFile, format)
	if err != nil {
		logger.Error("failed to create output writer", "format", formatStr, "error", err)
		return err
	}

	logger.Info("starting extraction",
		"documents", len(args),
		"fields", s.Len(),
		"provider", p.Provider(),
		"template", variant,
		"concurrency", concurrency)

	results := p.ExtractAll(ctx, args, s)

	extracted := 0
	errorCount := 0
	for _, res := range results {
		if res.Err != nil {
			logger.Error("document failed", "document", res.Path, "error", res.Err)
			errorCount++
			continue
		}
		if err := writer.WriteAll(res.Result.Records); err != nil {
			logger.Error("failed to write output", "document", res.Path, "error", err)
			return err
		}
		extracted++
	}

	if err := writer.Flush(); err != nil {
		logger.Error("failed to flush output", "error", err)
		return err
	}

	logger.Info("extraction complete", "extracted", extracted, "errors", errorCount)
	if errorCount > 0 {
		return fmt.Errorf("%d of %d documents failed", errorCount, len(args))
	}
	return nil
}
