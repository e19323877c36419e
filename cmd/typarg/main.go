package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type CLI struct {
	Globals `embed:""`

	Resolve ResolveCmd `cmd:"" help:"Resolve a type parameter of an ancestor, as seen from a subject class."`
	Field   FieldCmd   `cmd:"" help:"Resolve the declared type of a field, as seen from a subject class."`
	Method  MethodCmd  `cmd:"" help:"Resolve the return type of a method, as seen from a subject class."`
	Check   CheckCmd   `cmd:"" help:"Load and link the sources, reporting the first error."`
	Index   IndexCmd   `cmd:"" help:"Write the classpath documents and Java sources to a snapshot file."`
	Serve   ServeCmd   `cmd:"" help:"Serve resolver queries over HTTP."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

// app carries the process state commands need beyond flags.
type app struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("typarg"),
		kong.Description("Resolve generic type arguments across a class hierarchy."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(&cli.Globals, &app{ctx: ctx, stdout: stdout, stderr: stderr})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "typarg: error: %v\n", err)
		os.Exit(1)
	}
}
