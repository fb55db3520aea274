package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/assignparse/internal/model"
)

// EmailExtensions are the file extensions picked up from directories.
var EmailExtensions = []string{".txt", ".eml", ".html", ".htm"}

// Parser parses one email file into a report
type Parser interface {
	ParseFile(ctx context.Context, path string) (*model.Report, error)
}

// ParseJob represents one email file to parse
type ParseJob struct {
	Index  int
	Path   string
	Parser Parser
}

// Execute executes the parse job
func (j *ParseJob) Execute(ctx context.Context) Result {
	report, err := j.Parser.ParseFile(ctx, j.Path)
	if err != nil {
		return &ParseResult{Index: j.Index, Path: j.Path, Error: err}
	}
	return &ParseResult{Index: j.Index, Path: j.Path, Report: report}
}

// ParseResult represents the result of a parse job
type ParseResult struct {
	Index  int
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the parse result
func (r *ParseResult) GetError() error {
	return r.Error
}

// BatchProcessor parses multiple email files concurrently
type BatchProcessor struct {
	parser      Parser
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(parser Parser, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		parser:      parser,
		concurrency: concurrency,
	}
}

// ProcessFiles parses every path and returns results in input order.
// Files never queued because ctx was cancelled report ctx's error.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*ParseResult {
	if len(paths) == 0 {
		return []*ParseResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, path := range paths {
		pool.Submit(&ParseJob{Index: i, Path: path, Parser: b.parser})
	}

	results := pool.Wait()

	ordered := make([]*ParseResult, len(paths))
	for _, result := range results {
		r := result.(*ParseResult)
		ordered[r.Index] = r
	}
	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("not processed")
			}
			ordered[i] = &ParseResult{Index: i, Path: paths[i], Error: err}
		}
	}
	return ordered
}

// ProcessInputs expands files, directories and list files, then parses them.
func (b *BatchProcessor) ProcessInputs(ctx context.Context, inputs []string) ([]*ParseResult, error) {
	paths, err := CollectInputs(inputs)
	if err != nil {
		return nil, err
	}
	return b.ProcessFiles(ctx, paths), nil
}

// CollectInputs expands inputs into email file paths. Directories
// contribute their email files (not recursive, sorted); files ending in
// ".list" contribute the paths they name; anything else is taken as an
// email file. Duplicates are dropped.
func CollectInputs(inputs []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		switch {
		case info.IsDir():
			files, err := emailFiles(in)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		case strings.EqualFold(filepath.Ext(in), ".list"):
			listed, err := ReadPathsFromFile(in)
			if err != nil {
				return nil, fmt.Errorf("read list: %w", err)
			}
			for _, f := range listed {
				add(f)
			}
		default:
			add(in)
		}
	}
	return paths, nil
}

func emailFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isEmailFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func isEmailFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range EmailExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadPathsFromFile reads email paths from a file (one per line). Relative
// paths resolve against the list file's directory.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
