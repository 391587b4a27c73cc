// Package loader discovers, reads, parses, and validates .feature files.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	tagexpressions "github.com/cucumber/tag-expressions/go/v6"
	"golang.org/x/sync/errgroup"

	"github.com/denizgursoy/tursu/pkg/gherkin"
)

const (
	FeatureExtension = ".feature"
	Separator        = ","

	maxWalkDepth       = 10
	discoveryTimeout   = 10 * time.Second
	defaultConcurrency = 8
)

// Loader is the file orchestrator: it owns content normalization, the parse
// cache, and semantic validation on top of the structural parser.
type Loader struct {
	parser      DocumentParser
	logger      *slog.Logger
	cache       *parseCache
	concurrency int
}

type Option func(*Loader)

// WithParser swaps the document parser, mostly for tests.
func WithParser(p DocumentParser) Option {
	return func(l *Loader) { l.parser = p }
}

// WithConcurrency bounds how many files ParseAll parses at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		parser:      tokenizingParser{logger: logger},
		logger:      logger,
		cache:       newParseCache(logger),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// tokenizingParser is the production DocumentParser: tokenize then parse.
type tokenizingParser struct {
	logger *slog.Logger
}

func (p tokenizingParser) Parse(source string, uri string) (*gherkin.Feature, error) {
	tokens := gherkin.Tokenize(source)
	return gherkin.NewParser(p.logger).Parse(tokens, uri)
}

// ParseFile reads, normalizes, parses, and validates one feature file.
// Results are cached per absolute path for a short TTL.
func (l *Loader) ParseFile(path string) (*gherkin.Feature, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	if cached, ok := l.cache.Get(abs); ok {
		return cached, nil
	}

	if !strings.EqualFold(filepath.Ext(abs), FeatureExtension) {
		return nil, fmt.Errorf("%s is not a %s file", path, FeatureExtension)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	source := normalizeContent(raw)
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("feature file %s is empty", path)
	}

	feature, err := l.parser.Parse(source, abs)
	if err != nil {
		return nil, err
	}
	if err := Validate(feature); err != nil {
		return nil, err
	}

	l.cache.Put(abs, feature)
	return feature, nil
}

// ParseAll expands comma-separated file, directory, and glob patterns and
// parses every discovered feature file concurrently. A single file's failure
// is logged and excluded; only discovery failures abort the batch.
func (l *Loader) ParseAll(ctx context.Context, patterns string) ([]*gherkin.Feature, error) {
	files, err := l.Discover(ctx, patterns)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	byPath := make(map[string]*gherkin.Feature, len(files))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			feature, parseErr := l.ParseFile(file)
			if parseErr != nil {
				l.logger.Warn("skipping feature file", "file", file, "error", parseErr)
				return nil
			}
			mu.Lock()
			byPath[file] = feature
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	features := make([]*gherkin.Feature, 0, len(byPath))
	for _, file := range files {
		if f, ok := byPath[file]; ok {
			features = append(features, f)
		}
	}
	return features, nil
}

// Discover expands each pattern under a per-pattern timeout and a bounded
// walk depth, deduplicating the resulting paths.
func (l *Loader) Discover(ctx context.Context, patterns string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
	}

	for _, pattern := range strings.Split(patterns, Separator) {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		patternCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
		err := l.expandPattern(patternCtx, pattern, add)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("cannot expand pattern %q: %w", pattern, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func (l *Loader) expandPattern(ctx context.Context, pattern string, add func(string)) error {
	if info, err := os.Stat(pattern); err == nil {
		if info.IsDir() {
			return l.walkDirectory(ctx, pattern, add)
		}
		add(pattern)
		return nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no files match")
	}
	for _, match := range matches {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		info, err := os.Stat(match)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := l.walkDirectory(ctx, match, add); err != nil {
				return err
			}
		} else if strings.EqualFold(filepath.Ext(match), FeatureExtension) {
			add(match)
		}
	}
	return nil
}

func (l *Loader) walkDirectory(ctx context.Context, root string, add func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("discovery timed out under %s: %w", root, ctx.Err())
		}
		if d.IsDir() {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && strings.Count(rel, string(filepath.Separator)) >= maxWalkDepth {
				return fs.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), FeatureExtension) {
			add(path)
		}
		return nil
	})
}

// FilterByTagExpression keeps only the scenarios whose tags (feature tags
// inherited) satisfy a cucumber tag expression such as
// "@smoke and not @slow". Features left without scenarios are dropped.
func (l *Loader) FilterByTagExpression(features []*gherkin.Feature, expr string) ([]*gherkin.Feature, error) {
	if strings.TrimSpace(expr) == "" {
		return features, nil
	}
	evaluator, err := tagexpressions.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid tag expression %q: %w", expr, err)
	}

	var filtered []*gherkin.Feature
	for _, feature := range features {
		var kept []*gherkin.Scenario
		for _, sc := range feature.Scenarios {
			tags := append(append([]string{}, feature.Tags...), sc.Tags...)
			if evaluator.Evaluate(tags) {
				kept = append(kept, sc)
			}
		}
		if len(kept) == 0 {
			continue
		}
		copied := *feature
		copied.Scenarios = kept
		filtered = append(filtered, &copied)
	}
	return filtered, nil
}

// ClearCache drops every cached parse result.
func (l *Loader) ClearCache() {
	l.cache.Clear()
}

// normalizeContent strips a leading byte-order mark and normalizes all line
// endings to \n.
func normalizeContent(raw []byte) string {
	s := strings.TrimPrefix(string(raw), "\uFEFF")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
