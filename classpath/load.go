package classpath

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/broady/typarg/model"
)

type options struct {
	logger   *slog.Logger
	jobs     int
	builtins bool
}

// Option configures loading and linking.
type Option func(*options)

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithJobs bounds the number of files read concurrently.
// Zero or less means GOMAXPROCS.
func WithJobs(n int) Option {
	return func(o *options) { o.jobs = n }
}

// WithoutBuiltins links the documents alone, without the embedded
// java.* classes.
func WithoutBuiltins() Option {
	return func(o *options) { o.builtins = false }
}

func buildOptions(opts []Option) options {
	o := options{builtins: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.jobs <= 0 {
		o.jobs = runtime.GOMAXPROCS(0)
	}
	return o
}

// Expand replaces directories in paths with the document files they
// contain, recursively and in lexical order. Files named explicitly are
// kept whatever their extension, so that ReadFile can reject them.
func Expand(paths []string, accept func(string) bool) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && accept(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// ReadFiles reads the documents in paths concurrently. Directories are
// searched for .yaml, .yml, .toml and .mp files. Documents are returned in
// path order.
func ReadFiles(ctx context.Context, paths []string, opts ...Option) ([]*Document, error) {
	o := buildOptions(opts)
	files, err := Expand(paths, IsDocument)
	if err != nil {
		return nil, fmt.Errorf("classpath: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	results := make([][]*Document, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(o.jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs, err := ReadFile(path)
			if err != nil {
				return err
			}
			o.logger.Info("classpath file loaded",
				slog.String("path", path),
				slog.Int("documents", len(docs)))
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var docs []*Document
	for _, r := range results {
		docs = append(docs, r...)
	}
	return docs, nil
}

// Link declares docs, together with the built-ins unless WithoutBuiltins is
// given, and returns the sealed universe.
func Link(docs []*Document, opts ...Option) (*model.Universe, error) {
	o := buildOptions(opts)
	l := NewLinker(o.logger)
	if o.builtins {
		builtins, err := Builtins()
		if err != nil {
			return nil, err
		}
		docs = append(append([]*Document(nil), builtins...), docs...)
	}
	for _, doc := range docs {
		if err := l.Add(doc); err != nil {
			return nil, err
		}
	}
	return l.Link()
}

// Load reads the documents in paths and links them.
func Load(ctx context.Context, paths []string, opts ...Option) (*model.Universe, error) {
	docs, err := ReadFiles(ctx, paths, opts...)
	if err != nil {
		return nil, err
	}
	return Link(docs, opts...)
}
