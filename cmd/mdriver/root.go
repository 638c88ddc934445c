package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/tagheap/tagheap/memutils/memsys"
)

type driverOptions struct {
	files        []string
	traceDir     string
	verbose      bool
	validateEach bool
	jsonOut      bool
	mapped       bool
	maxHeap      int
}

func newRootCmd() *cobra.Command {
	opts := &driverOptions{}

	cmd := &cobra.Command{
		Use:   "mdriver [trace.rep...]",
		Short: "Replay allocator traces and report utilization and throughput",
		Long: `mdriver replays allocator trace files against the boundary-tag allocator. Each
trace runs on a fresh heap; every payload is checked for alignment, heap bounds,
overlap with other live payloads, and preserved contents until it is freed.

Example:
  mdriver -t traces
  mdriver -f short1.rep -f short2.rep -t traces -V
  mdriver --json --mmap traces/realloc.rep`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriver(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.files, "file", "f", nil, "Trace file to replay (repeatable)")
	flags.StringVarP(&opts.traceDir, "tracedir", "t", "", "Directory holding trace files; without -f, every .rep file in it is replayed")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVarP(&opts.validateEach, "validate", "V", false, "Run the heap checker after every request")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print each trace's final heap map in JSON format")
	flags.BoolVar(&opts.mapped, "mmap", false, "Grow heaps inside an anonymous memory mapping")
	flags.IntVar(&opts.maxHeap, "max-heap", memsys.DefaultMaxHeap, "Maximum heap size in bytes")

	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDriver(cmd *cobra.Command, opts *driverOptions, args []string) error {
	paths, err := opts.tracePaths(args)
	if err != nil {
		return err
	}
	if opts.maxHeap <= 0 {
		return errors.Newf("--max-heap must be positive, but it was %d", opts.maxHeap)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	replayOptions := ReplayOptions{
		Logger:       logger,
		Mapped:       opts.mapped,
		MaxHeap:      opts.maxHeap,
		ValidateEach: opts.validateEach,
		DetailedMap:  opts.jsonOut,
	}

	out := cmd.OutOrStdout()
	results := make([]*Result, 0, len(paths))
	failed := 0
	for _, path := range paths {
		logger.Info("replaying trace", slog.String("path", path))

		var result *Result
		trace, err := LoadTrace(path)
		if err != nil {
			result = &Result{Name: filepath.Base(path), Err: err}
		} else {
			result = RunTrace(trace, replayOptions)
		}

		if !result.Valid() {
			failed++
			logger.Error("trace failed", slog.String("trace", result.Name), slog.Any("error", result.Err))
		}
		if result.Stats != "" {
			fmt.Fprintln(out, result.Stats)
		}
		results = append(results, result)
	}

	printReport(out, results)

	if failed > 0 {
		return errors.Newf("%d of %d traces failed", failed, len(results))
	}
	return nil
}

// tracePaths resolves the traces to replay. Relative names from -f and the arguments are
// looked up in the trace directory when one is given.
func (o *driverOptions) tracePaths(args []string) ([]string, error) {
	files := append(slices.Clone(o.files), args...)

	if len(files) == 0 {
		if o.traceDir == "" {
			return nil, errors.New("no traces to replay: pass trace files or --tracedir")
		}
		matches, err := filepath.Glob(filepath.Join(o.traceDir, "*.rep"))
		if err != nil {
			return nil, errors.Wrap(err, "listing traces")
		}
		if len(matches) == 0 {
			return nil, errors.Newf("no .rep files in %s", o.traceDir)
		}
		return matches, nil
	}

	if o.traceDir != "" {
		for i, file := range files {
			if !filepath.IsAbs(file) {
				files[i] = filepath.Join(o.traceDir, file)
			}
		}
	}
	return files, nil
}
