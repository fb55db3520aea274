package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/assignparse/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	parseStrategy string
	parseFormat   string
	parseOutput   string
	parseTimeout  time.Duration
	forceHTML     bool
	showTrace     bool
	noCache       bool
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse one assignment email into a record",
	Long: `Parse reads one email (a file, or stdin when no file or "-" is given),
runs the selected strategy and prints the validated record as JSON.

HTML bodies are flattened to text automatically; --html forces it.

Example:
  assignparse parse email.txt
  assignparse parse email.html --strategy hybrid --format quickbase
  cat email.txt | assignparse parse --trace`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseStrategy, "strategy", "s", "", "strategy id (default from config: rule_based)")
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", pipeline.FormatJSON, "output format ("+strings.Join(pipeline.Formats, ", ")+")")
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "", "write output to a file instead of stdout")
	parseCmd.Flags().DurationVar(&parseTimeout, "timeout", 2*time.Minute, "overall parse timeout")
	parseCmd.Flags().BoolVar(&forceHTML, "html", false, "treat input as HTML")
	parseCmd.Flags().BoolVar(&showTrace, "trace", false, "print strategy transitions to stderr")
	parseCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the record cache")
}

func runParse(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), parseTimeout)
	defer cancel()

	source := "stdin"
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		source = args[0]
		in = f
	}

	result, err := a.pipeline.ParseReader(ctx, source, in, pipeline.Options{
		Strategy: parseStrategy,
		HTML:     forceHTML,
		NoCache:  noCache,
	})
	if showTrace && result != nil {
		pipeline.RenderTrace(cmd.ErrOrStderr(), result.Trace)
	}
	if err != nil {
		return err
	}

	if verbose {
		pipeline.RenderSummary(cmd.ErrOrStderr(), result.Report)
	}

	if parseOutput != "" {
		if err := pipeline.WriteFile(parseOutput, result.Report, parseFormat); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s\n", parseOutput)
		}
		return nil
	}
	return pipeline.Render(cmd.OutOrStdout(), result.Report, parseFormat)
}
