package main

import (
	"fmt"
	"log/slog"

	"github.com/broady/typarg/classpath"
	"github.com/broady/typarg/internal/httpapi"
	"github.com/broady/typarg/internal/query"
)

type ResolveCmd struct {
	Subject string `arg:"" help:"Class the question is asked from."`
	Param   string `arg:"" help:"Type parameter to resolve, as Class.Name or Class#index."`
}

func (c *ResolveCmd) Run(g *Globals, a *app) error {
	return runQuery(g, a, query.Request{Op: query.OpResolve, Subject: c.Subject, Param: c.Param})
}

type FieldCmd struct {
	Subject string `arg:"" help:"Class the question is asked from."`
	Name    string `arg:"" help:"Field name, declared on the subject or an ancestor."`
	Param   string `help:"Resolve this type parameter through the field's type." short:"p"`
}

func (c *FieldCmd) Run(g *Globals, a *app) error {
	return runQuery(g, a, query.Request{Op: query.OpField, Subject: c.Subject, Name: c.Name, Param: c.Param})
}

type MethodCmd struct {
	Subject string `arg:"" help:"Class the question is asked from."`
	Name    string `arg:"" help:"Method name, declared on the subject or an ancestor."`
	Param   string `help:"Resolve this type parameter through the return type." short:"p"`
}

func (c *MethodCmd) Run(g *Globals, a *app) error {
	return runQuery(g, a, query.Request{Op: query.OpMethod, Subject: c.Subject, Name: c.Name, Param: c.Param})
}

func runQuery(g *Globals, a *app, req query.Request) error {
	s, err := g.settings(a)
	if err != nil {
		return err
	}
	u, err := s.universe(a.ctx)
	if err != nil {
		return err
	}
	res, err := query.Run(u, req, s.logger)
	if err != nil {
		return err
	}
	return newPrinter(a.stdout, s.format).result(res)
}

type CheckCmd struct {
	List bool `help:"List every class with its declaration." short:"l"`
}

type classEntry struct {
	Name        string `json:"name" yaml:"name"`
	Declaration string `json:"declaration" yaml:"declaration"`
}

type checkReport struct {
	Classes int          `json:"classes" yaml:"classes"`
	List    []classEntry `json:"list,omitempty" yaml:"list,omitempty"`
}

func (c *CheckCmd) Run(g *Globals, a *app) error {
	s, err := g.settings(a)
	if err != nil {
		return err
	}
	u, err := s.universe(a.ctx)
	if err != nil {
		return err
	}
	report := checkReport{Classes: u.Len()}
	if c.List {
		for _, cls := range u.Classes() {
			report.List = append(report.List, classEntry{Name: cls.Name, Declaration: cls.Declaration()})
		}
	}

	p := newPrinter(a.stdout, s.format)
	if s.format != formatText {
		return p.value(report)
	}
	if c.List {
		rows := make([][]string, len(report.List))
		for i, e := range report.List {
			rows[i] = []string{e.Name, e.Declaration}
		}
		if err := p.table(rows, p.name, nil); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(a.stdout, "ok: %s classes\n", p.kind.Sprint(report.Classes))
	return err
}

type IndexCmd struct {
	Out string `arg:"" help:"Snapshot file to write (.mp)." type:"path"`
}

func (c *IndexCmd) Run(g *Globals, a *app) error {
	s, err := g.settings(a)
	if err != nil {
		return err
	}
	if len(s.goPkgs) > 0 {
		return fmt.Errorf("index reads --classpath and --java sources only")
	}
	docs, err := s.documents(a.ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("nothing to index: pass --classpath or --java")
	}
	// Refuse to snapshot documents that do not link.
	if _, err := classpath.Link(docs, s.classpathOptions()...); err != nil {
		return err
	}
	if err := classpath.WriteSnapshotFile(c.Out, docs); err != nil {
		return err
	}
	s.logger.Info("snapshot written", slog.String("path", c.Out), slog.Int("documents", len(docs)))
	_, err = fmt.Fprintf(a.stdout, "wrote %d documents to %s\n", len(docs), c.Out)
	return err
}

type ServeCmd struct {
	Addr        string   `help:"Address to listen on. Defaults to [serve].addr or localhost:8080."`
	AllowOrigin []string `help:"Origins allowed by CORS. Defaults to [serve].allow_origins or any." name:"allow-origin"`
}

func (c *ServeCmd) Run(g *Globals, a *app) error {
	s, err := g.settings(a)
	if err != nil {
		return err
	}
	u, err := s.universe(a.ctx)
	if err != nil {
		return err
	}
	addr := firstNonEmpty(c.Addr, s.cfg.Serve.Addr, "localhost:8080")
	srv := httpapi.New(u).
		WithLogger(s.logger).
		WithMaskInternalErrors().
		WithMiddleware(httpapi.Logging(s.logger)).
		WithMiddleware(httpapi.CORS(httpapi.CORSConfig{
			AllowOrigins: override(c.AllowOrigin, s.cfg.Serve.AllowOrigins),
			MaxAge:       600,
		}))
	return srv.ListenAndServe(a.ctx, addr)
}
