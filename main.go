//go:build !(js && wasm)

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/voxelsplace/voxgen/internal/ctxlog"
	"github.com/voxelsplace/voxgen/utils"
)

// ExitError carries a process exit code back to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: voxgen [-log-level level] [-log-format text|json] <command> [args]")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render [-o out.vox] [-n gens] [-glb] [-catalog db] job.yaml|job.hcl   (render a job to .vox)")
	fmt.Fprintln(w, "  series [-o out.voxpack] [-n gens] [-catalog db] job.yaml|job.hcl      (render generations 0..n into a .voxpack)")
	fmt.Fprintln(w, "  vox2glb input.vox output.glb                                         (convert .vox -> .glb using greedy mesh)")
	fmt.Fprintln(w, "  pack2glb input.voxpack output.glb                                    (convert .voxpack -> .glb, one node per entry)")
	fmt.Fprintln(w, "  pack [-layout cdc|raw] [-codec zstd|zlib|none] output.voxpack input1.vox [input2.vox ...]")
	fmt.Fprintln(w, "  unpack input.voxpack output_dir                                      (unpack .voxpack into a directory of .vox files)")
	fmt.Fprintln(w, "  catalog [-name job] db                                               (list recorded renders)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			if exitErr.Code == 2 {
				usage(os.Stderr)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	global := flag.NewFlagSet("voxgen", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	logLevel := global.String("log-level", "info", "debug, info, warn or error")
	logFormat := global.String("log-format", "text", "text or json")
	if err := global.Parse(args); err != nil {
		return usageError("%v", err)
	}
	args = global.Args()
	if len(args) == 0 {
		return usageError("missing command")
	}
	ctx = ctxlog.WithLogger(ctx, ctxlog.New(*logLevel, *logFormat, stderr))

	cmd, args := args[0], args[1:]
	switch cmd {
	case "render", "series":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		var flags utils.RenderFlags
		fs.StringVar(&flags.Out, "o", "", "output path")
		fs.IntVar(&flags.Generations, "n", -1, "generation count, overrides the job")
		fs.StringVar(&flags.Catalog, "catalog", "", "catalog database to record into")
		if cmd == "render" {
			fs.BoolVar(&flags.GLB, "glb", false, "also write a .glb mesh")
		}
		if err := fs.Parse(args); err != nil {
			return usageError("%s: %v", cmd, err)
		}
		if fs.NArg() != 1 {
			return usageError("%s: expected one job file", cmd)
		}
		var (
			path string
			err  error
		)
		if cmd == "render" {
			path, err = utils.RunRender(ctx, fs.Arg(0), flags)
		} else {
			path, err = utils.RunSeries(ctx, fs.Arg(0), flags)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
	case "vox2glb":
		if len(args) != 2 {
			return usageError("vox2glb: expected input and output")
		}
		if err := utils.RunVox2GLB(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintln(stdout, args[1])
	case "pack2glb":
		if len(args) != 2 {
			return usageError("pack2glb: expected input and output")
		}
		if err := utils.RunPack2GLB(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintln(stdout, args[1])
	case "pack":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		layoutName := fs.String("layout", "cdc", "cdc or raw")
		codecName := fs.String("codec", "zstd", "zstd, zlib or none")
		if err := fs.Parse(args); err != nil {
			return usageError("pack: %v", err)
		}
		if fs.NArg() < 2 {
			return usageError("pack: expected output and at least one input")
		}
		layout, err := utils.ParseLayout(*layoutName)
		if err != nil {
			return usageError("pack: %v", err)
		}
		codec, err := utils.ParseCodec(*codecName)
		if err != nil {
			return usageError("pack: %v", err)
		}
		if err := utils.CreatePack(ctx, fs.Args()[1:], fs.Arg(0), layout, codec); err != nil {
			return err
		}
		fmt.Fprintln(stdout, fs.Arg(0))
	case "unpack":
		if len(args) != 2 {
			return usageError("unpack: expected input and output directory")
		}
		if err := utils.UnpackToDir(ctx, args[0], args[1]); err != nil {
			return err
		}
	case "catalog":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		name := fs.String("name", "", "only list this job")
		if err := fs.Parse(args); err != nil {
			return usageError("catalog: %v", err)
		}
		if fs.NArg() != 1 {
			return usageError("catalog: expected database path")
		}
		if err := utils.RunCatalogList(ctx, fs.Arg(0), *name, stdout); err != nil {
			return err
		}
	case "help":
		usage(stdout)
	default:
		return usageError("unknown command %q", cmd)
	}
	return nil
}
