// soulstool is a CLI utility for inspecting and rewriting FLVER models and
// MSB model tables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/soulsfmt/internal/config"
	"github.com/Faultbox/soulsfmt/internal/logger"
)

// app carries what every command needs once flags and config are resolved.
type app struct {
	ctx    context.Context
	cfg    *config.Config
	log    *zap.Logger
	stdout io.Writer
	args   []string
}

// command registers its own flags on fs and returns the function that runs
// it after parsing.
type command func(fs *flag.FlagSet) func(a *app) error

var commands = map[string]command{
	"info":          cmdInfo,
	"roundtrip":     cmdRoundTrip,
	"faces":         cmdFaces,
	"export-models": cmdExportModels,
	"import-models": cmdImportModels,
	"config":        cmdConfig,
}

// usageError is returned when a command is called with the wrong arguments.
type usageError string

func (e usageError) Error() string {
	return "usage: soulstool " + string(e)
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	name := os.Args[1]
	switch name {
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", name)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, name, cmd, os.Args[2:], os.Stdout)
	var ue usageError
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.As(err, &ue):
		fmt.Fprintf(os.Stderr, "Usage: soulstool %s\n", string(ue))
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses a command's flags, loads the configuration, sets up logging
// and runs the command.
func run(ctx context.Context, name string, cmd command, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	exec := cmd(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	return exec(&app{
		ctx:    ctx,
		cfg:    cfg,
		log:    logger.Named(name),
		stdout: stdout,
		args:   fs.Args(),
	})
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `soulstool - FLVER model and MSB model table utility

Usage:
  soulstool <command> [options]

Commands:
  info [-bones] <file.flver>              Show model header, meshes and layouts
  roundtrip [-o out] <file>               Rewrite a model or model table and compare
  faces [-lod n] [-v] <file.flver>        Triangulate meshes
  export-models <file.param> [out.yaml]   Export a model table as YAML
  import-models <in.yaml> <file.param>    Build a model table from YAML
  config [-save path]                     Show or save the effective configuration

Shared options:
  -config path        Config file (default ./soulsfmt.yaml or the user config dir)
  -debug              Enable debug logging
  -log-file path      Also log to a rotated file
  -edge-helper path   Edge index decompressor executable
  -lenient            Report roundtrip differences without failing
  -indent n           Indentation of YAML exports

Examples:
  soulstool info c1000.flver
  soulstool roundtrip -o c1000_new.flver c1000.flver
  soulstool faces -edge-helper ./edgedec -lod 1 m10_00_00_00.flver
  soulstool export-models models.param models.yaml`)
}
