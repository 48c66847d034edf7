// Generates labeled synthetic image datasets from randomized 3D object scenes.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"

	"github.com/sensorable/lblgen"
)

// Exit codes.
const (
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := lblgen.ParseArgs(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		return fail("Invalid arguments: ", err)
	}

	if opts.Interactive {
		if err := promptOptions(opts); err != nil {
			return fail("Interactive setup failed: ", err)
		}
	}

	cfg, err := lblgen.LoadConfig(opts.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("No configuration at %q, using the defaults", opts.ConfigPath)
		cfg = lblgen.DefaultConfig()
	} else if err != nil {
		return fail("Failed to load the configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := lblgen.NewPreviewEngine(opts.JPEGQuality)
	res, err := lblgen.NewPipeline(engine, cfg, opts).Run(ctx)
	if err != nil {
		return fail("Generation failed: ", err)
	}

	if err := res.Timings.Report(os.Stdout); err != nil {
		return fail("Failed to print the timings: ", err)
	}
	if res.Dataset != nil {
		log.Printf("Successfully generated %d images with %d annotations in %s",
			len(res.Dataset.Images), len(res.Dataset.Annotations), opts.OutputLocation)
	}
	return 0
}

// fail logs the error and returns the exit code for it.
func fail(msg string, err error) int {
	log.Print(msg, err)
	var cfgErr *lblgen.ConfigError
	if errors.As(err, &cfgErr) {
		return exitConfig
	}
	return exitFailure
}
