// Package main is a command-line application on top of cruft.Reporter.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.sr.ht/~motiejus/cruftspy/cruft"
	"git.sr.ht/~motiejus/cruftspy/imagetar"
	"git.sr.ht/~motiejus/cruftspy/internal/cmd"
	goflags "github.com/jessevdk/go-flags"
	"go.uber.org/multierr"
)

// _diagnosticEnv, when set to any value, lists every layer and its members.
const _diagnosticEnv = "TEST"

const _description = `Report cruft in a Docker container image.

Cruft is content that is rarely needed in a production image: log and
temporary files, package manager lists and caches, language package caches
and git object stores. For each layer, every cruft location is printed once
with the size of everything under it, followed by the total of all layers.

Set the TEST environment variable to also list every layer and its members.`

type options struct {
	Verbose  bool `short:"v" long:"verbose" description:"Log debug messages to stderr"`
	Jobs     int  `short:"j" long:"jobs" default:"1" description:"Number of layers to classify concurrently"`
	Manifest bool `long:"manifest" description:"Take layers from manifest.json, in the order they are laid down"`
	Man      bool `long:"man" description:"Print a man page and exit"`

	PositionalArgs struct {
		Image goflags.Filename `positional-arg-name:"docker-image.tar" description:"Image tarball, e.g. from docker save"`
	} `positional-args:"yes"`
}

func main() {
	c := &command{}
	c.Init()
	os.Exit(c.run(filepath.Base(os.Args[0]), os.Args[1:]))
}

type command struct {
	cmd.BaseCommand
	opts options
}

// run parses args and executes the command. It returns the exit code.
func (c *command) run(prog string, args []string) int {
	parser := goflags.NewParser(&c.opts, goflags.HelpFlag|goflags.PassDoubleDash)
	parser.Name = prog
	parser.ShortDescription = "report cruft in a Docker container image"
	parser.LongDescription = _description

	rest, err := parser.ParseArgs(args)
	if err != nil {
		var ferr *goflags.Error
		if errors.As(err, &ferr) && ferr.Type == goflags.ErrHelp {
			fmt.Fprintln(c.Stdout, ferr.Message)
			return 0
		}
		fmt.Fprintf(c.Stderr, "Error: %v\n", err)
		return 1
	}

	if c.opts.Man {
		parser.WriteManPage(c.Stdout)
		return 0
	}
	if len(rest) != 0 {
		fmt.Fprintf(c.Stderr, "Error: too many args\n")
		return 1
	}
	if c.opts.PositionalArgs.Image == "" {
		fmt.Fprintf(c.Stdout, "usage: %s docker-image.tar\n", prog)
		return 0
	}

	if err := c.execute(context.Background(), string(c.opts.PositionalArgs.Image)); err != nil {
		fmt.Fprintf(c.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *command) execute(ctx context.Context, infile string) (err error) {
	if c.opts.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.opts.Jobs)
	}

	rd, err := os.Open(infile)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rd.Close()) }()

	logger := c.logger()
	readOpts := []imagetar.Option{imagetar.WithLogger(logger)}
	if c.opts.Manifest {
		readOpts = append(readOpts, imagetar.WithManifestOrder())
	}

	r := cruft.NewReporter(c.Stdout)
	r.Logger = logger
	r.Jobs = c.opts.Jobs
	r.Diagnostic = c.Hasenv(_diagnosticEnv)

	if r.Jobs > 1 {
		layers, err := imagetar.Read(rd, readOpts...)
		if err != nil {
			return err
		}
		logger.Debug("found layers", "image", infile, "layers", len(layers))
		_, err = r.Report(ctx, layers)
		return err
	}

	// one job: report every layer as soon as it is read
	var total int64
	err = imagetar.Walk(rd, func(layer imagetar.Layer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		size, err := r.Layer(layer)
		total += size
		return err
	}, readOpts...)
	if err != nil {
		return err
	}
	return r.Total(total)
}

func (c *command) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.Stderr, &slog.HandlerOptions{Level: level}))
}
