package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/broady/typarg/classpath"
	"github.com/broady/typarg/goprovider"
	"github.com/broady/typarg/javasrc"
	"github.com/broady/typarg/model"
)

// Globals are the flags shared by every command. Flags override typarg.toml.
type Globals struct {
	Config     string   `help:"Path to typarg.toml. Defaults to the nearest one at or above the working directory." type:"path"`
	NoConfig   bool     `help:"Ignore typarg.toml." name:"no-config"`
	Classpath  []string `help:"Classpath documents (.yaml, .toml, .mp) or directories containing them." short:"c" type:"path"`
	Java       []string `help:"Java source files or directories containing them." short:"j" type:"path"`
	Go         []string `help:"Go package patterns. Cannot be combined with --classpath or --java." short:"g" name:"go"`
	Format     string   `help:"Output format: text, json or yaml." short:"f"`
	LogLevel   string   `help:"Log level: debug, info, warn or error." name:"log-level"`
	Jobs       int      `help:"Files read concurrently. Zero means one per CPU."`
	NoBuiltins bool     `help:"Do not link the built-in java.* classes." name:"no-builtins"`
}

// settings are the effective options after merging typarg.toml and flags.
type settings struct {
	cfg       *Config
	classpath []string
	java      []string
	goPkgs    []string
	format    string
	jobs      int
	builtins  bool
	logger    *slog.Logger
}

var formats = []string{formatText, formatJSON, formatYAML}

func (g *Globals) settings(a *app) (*settings, error) {
	cfg := &Config{}
	if !g.NoConfig {
		path := g.Config
		if path == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			found, ok, err := findConfig(wd)
			if err != nil {
				return nil, err
			}
			if ok {
				path = found
			}
		}
		if path != "" {
			c, err := loadConfig(path)
			if err != nil {
				return nil, err
			}
			cfg = c
		}
	}

	s := &settings{
		cfg:       cfg,
		classpath: override(g.Classpath, cfg.Classpath),
		java:      override(g.Java, cfg.Java),
		goPkgs:    override(g.Go, cfg.GoPackages),
		format:    firstNonEmpty(g.Format, cfg.Format, formatText),
		jobs:      g.Jobs,
		builtins:  !g.NoBuiltins,
	}
	if !slices.Contains(formats, s.format) {
		return nil, fmt.Errorf("--format must be one of %s, got %q", strings.Join(formats, ", "), s.format)
	}

	level := slog.LevelWarn
	if name := firstNonEmpty(g.LogLevel, cfg.LogLevel); name != "" {
		if err := level.UnmarshalText([]byte(name)); err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
	}
	s.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	if cfg.Path != "" {
		s.logger.Debug("config loaded", slog.String("path", cfg.Path))
	}
	return s, nil
}

func override(flag, file []string) []string {
	if len(flag) > 0 {
		return flag
	}
	return file
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *settings) classpathOptions() []classpath.Option {
	opts := []classpath.Option{classpath.WithLogger(s.logger), classpath.WithJobs(s.jobs)}
	if !s.builtins {
		opts = append(opts, classpath.WithoutBuiltins())
	}
	return opts
}

// documents reads the classpath documents and parses the Java sources,
// classpath first.
func (s *settings) documents(ctx context.Context) ([]*classpath.Document, error) {
	var docs []*classpath.Document
	if len(s.classpath) > 0 {
		d, err := classpath.ReadFiles(ctx, s.classpath, s.classpathOptions()...)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	if len(s.java) > 0 {
		d, err := javasrc.ParseFiles(ctx, s.java, s.jobs)
		if err != nil {
			return nil, err
		}
		s.logger.Info("java sources parsed", slog.Int("documents", len(d)))
		docs = append(docs, d...)
	}
	return docs, nil
}

// universe builds the sealed universe the queries run against.
func (s *settings) universe(ctx context.Context) (*model.Universe, error) {
	if len(s.goPkgs) > 0 {
		if len(s.classpath) > 0 || len(s.java) > 0 {
			return nil, errors.New("--go cannot be combined with --classpath or --java")
		}
		return goprovider.Load(ctx, goprovider.Options{
			Packages: s.goPkgs,
			Dir:      s.cfg.Dir(),
			Logger:   s.logger,
		})
	}
	docs, err := s.documents(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 && !s.builtins {
		return nil, errors.New("no sources: pass --classpath, --java or --go, or list them in " + configName)
	}
	return classpath.Link(docs, s.classpathOptions()...)
}
