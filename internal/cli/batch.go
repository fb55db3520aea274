package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/assignparse/internal/pipeline"
	"github.com/ppiankov/assignparse/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchFormat  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <path>...",
	Short: "Parse many assignment emails in parallel",
	Long: `Batch parses email files concurrently:
- Inputs may be files, directories (.txt, .eml, .html, .htm) or .list files
  naming one path per line
- Each email is parsed independently with the selected strategy
- One <name>.json is written per input, plus a coverage summary

Example:
  assignparse batch ./inbox
  assignparse batch ./inbox --concurrency 8 --output-dir ./records
  assignparse batch emails.list --strategy hybrid --format quickbase`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./assignparse-records", "output directory for records")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", pipeline.FormatJSON, "output format ("+strings.Join(pipeline.Formats, ", ")+")")
	batchCmd.Flags().StringVarP(&parseStrategy, "strategy", "s", "", "strategy id (default from config: rule_based)")
	batchCmd.Flags().BoolVar(&forceHTML, "html", false, "treat every input as HTML")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the record cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	workers := concurrency
	if workers <= 0 {
		workers = a.cfg.Concurrency.Workers
	}
	strategyID := parseStrategy
	if strategyID == "" {
		strategyID = a.cfg.Strategy
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  assignparse Batch Processing\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Inputs:       %s\n", strings.Join(args, ", "))
	fmt.Fprintf(stderr, "  Strategy:     %s\n", strategyID)
	fmt.Fprintf(stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(stderr, "\n")

	paths, err := worker.CollectInputs(args)
	if err != nil {
		return fmt.Errorf("collect inputs: %w", err)
	}
	fmt.Fprintf(stderr, "✓ Found %d email(s)\n\n", len(paths))

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	parser := a.pipeline.FileParser(pipeline.Options{Strategy: strategyID, HTML: forceHTML, NoCache: noCache})
	results := worker.NewBatchProcessor(parser, workers).ProcessFiles(ctx, paths)

	successCount := 0
	failureCount := 0
	resolved, total := 0, 0
	names := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		name := uniqueName(names, sanitizeFilename(result.Path))
		outPath := filepath.Join(outputDir, name+".json")
		if err := pipeline.WriteFile(outPath, result.Report, batchFormat); err != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: failed to write output: %v\n", result.Path, err)
			continue
		}

		successCount++
		resolved += result.Report.Coverage.Resolved
		total += result.Report.Coverage.Total
		pipeline.RenderSummary(stderr, result.Report)
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d emails\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failureCount)
	if total > 0 {
		fmt.Fprintf(stderr, "  Coverage:  %d/%d fields (%.0f%%)\n", resolved, total, float64(resolved)/float64(total)*100)
	}
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d emails failed", failureCount, len(results))
	}
	return nil
}

// sanitizeFilename turns an input path into an output base name
func sanitizeFilename(path string) string {
	s := filepath.Base(path)
	s = strings.TrimSuffix(s, filepath.Ext(s))

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" || s == "." {
		s = "email"
	}
	return s
}

// uniqueName suffixes repeated names so inputs from different directories
// do not overwrite each other.
func uniqueName(seen map[string]int, name string) string {
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s-%d", name, n+1)
}
