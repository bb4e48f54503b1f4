package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"shapefuzz/benchmark"
	"shapefuzz/config"
	"shapefuzz/corpus"
	"shapefuzz/flags"
	"shapefuzz/fuzzing"
	"shapefuzz/shape"
)

var app = initApp()

func initApp() *cli.App {
	app := cli.NewApp()
	app.Name = filepath.Base(os.Args[0])
	app.Usage = "Structure-aware fuzz corpus generator"
	app.Flags = []cli.Flag{
		flags.ConfigFlag,
		flags.SeedFlag,
		flags.TypeFlag,
		flags.CountFlag,
		flags.MutationsFlag,
		flags.MaxSizeFlag,
		flags.EndianFlag,
		flags.OutDirFlag,
		flags.ThreadFlag,
		flags.VerbosityFlag,
	}
	app.Action = startFuzzer
	app.Commands = []*cli.Command{
		{
			Name:   "bench",
			Usage:  "Time generation and mutation over the configured shapes",
			Flags:  []cli.Flag{flags.ConfigFlag, flags.CountFlag},
			Action: runBench,
		},
	}
	return app
}

func runBench(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(flags.ConfigFlag.Name))
	if err != nil {
		return err
	}
	registry, err := cfg.BuildRegistry()
	if err != nil {
		return err
	}
	if len(registry.Names()) == 0 {
		return fmt.Errorf("no shapes defined in %s", ctx.String(flags.ConfigFlag.Name))
	}
	rounds := cfg.Fuzzing.Count
	if ctx.IsSet(flags.CountFlag.Name) {
		rounds = ctx.Int(flags.CountFlag.Name)
	}
	benchmark.RunFullBench(registry, rounds)
	return nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func startFuzzer(ctx *cli.Context) error {
	loglevel := slog.Level(ctx.Int(flags.VerbosityFlag.Name))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, loglevel, true)))

	cfg, err := config.LoadConfig(ctx.String(flags.ConfigFlag.Name))
	if err != nil {
		return err
	}
	applyFlags(ctx, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		return err
	}
	targets := registry.Names()
	if name := ctx.String(flags.TypeFlag.Name); name != "" {
		if _, ok := registry.Lookup(name); !ok {
			return fmt.Errorf("unknown shape %q, have %v", name, registry.Names())
		}
		targets = []string{name}
	}
	if len(targets) == 0 {
		return fmt.Errorf("no shapes defined in %s", ctx.String(flags.ConfigFlag.Name))
	}

	seed := cfg.Fuzzing.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	if cfg.Monitoring.Enabled {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.MetricsPort)
		log.Info("Serving metrics", "addr", addr)
		go func() {
			if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
				log.Error("Metrics server failed", "err", err)
			}
		}()
	}

	writer, err := corpus.NewWriter(cfg.Output.Directory, cfg.ByteOrder(), log.Root())
	if err != nil {
		return err
	}

	log.Info("Starting fuzzer", "targets", targets, "count", cfg.Fuzzing.Count,
		"parallel", cfg.Fuzzing.Parallel, "seed", seed)
	return runFuzzer(cfg, registry, targets, writer, seed)
}

// applyFlags lets explicit CLI flags override the file configuration.
func applyFlags(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet(flags.SeedFlag.Name) {
		cfg.Fuzzing.Seed = ctx.Uint64(flags.SeedFlag.Name)
	}
	if ctx.IsSet(flags.CountFlag.Name) {
		cfg.Fuzzing.Count = ctx.Int(flags.CountFlag.Name)
	}
	if ctx.IsSet(flags.MutationsFlag.Name) {
		cfg.Fuzzing.MutationRounds = ctx.Int(flags.MutationsFlag.Name)
	}
	if ctx.IsSet(flags.MaxSizeFlag.Name) {
		cfg.Fuzzing.MaxSize = ctx.Int(flags.MaxSizeFlag.Name)
	}
	if ctx.IsSet(flags.EndianFlag.Name) {
		cfg.Fuzzing.Endianness = ctx.String(flags.EndianFlag.Name)
	}
	if ctx.IsSet(flags.OutDirFlag.Name) {
		cfg.Output.Directory = ctx.String(flags.OutDirFlag.Name)
	}
	if ctx.IsSet(flags.ThreadFlag.Name) {
		cfg.Fuzzing.Parallel = ctx.Int(flags.ThreadFlag.Name)
	}
}

// runFuzzer fans the requested count out over parallel workers. Each worker
// owns its own seeded source, so runs are reproducible per (seed, worker)
// and workers never contend on shared state.
func runFuzzer(cfg *config.Config, registry *shape.Registry, targets []string, writer *corpus.Writer, seed uint64) error {
	threads := cfg.Fuzzing.Parallel
	if threads < 1 {
		threads = 1
	}
	var (
		wg      sync.WaitGroup
		errChan = make(chan error, threads)
	)
	for i := 0; i < threads; i++ {
		count := cfg.Fuzzing.Count / threads
		if i < cfg.Fuzzing.Count%threads {
			count++
		}
		wg.Add(1)
		go func(worker, count int) {
			defer wg.Done()
			if err := fuzzWorker(cfg, registry, targets, writer, seed+uint64(worker), count); err != nil {
				errChan <- fmt.Errorf("worker %d error: %v", worker, err)
			}
		}(i, count)
	}
	go func() {
		wg.Wait()
		close(errChan)
	}()
	for err := range errChan {
		return err
	}
	return nil
}

func fuzzWorker(cfg *config.Config, registry *shape.Registry, targets []string, writer *corpus.Writer, seed uint64, count int) error {
	m := fuzzing.NewSeeded(seed, fuzzing.Config{
		RunFixups:       cfg.Fuzzing.RunFixups,
		EarlyBailRate:   cfg.Fuzzing.EarlyBailRate,
		InvalidEnumRate: cfg.Fuzzing.InvalidEnumRate,
	})
	for i := 0; i < count; i++ {
		name := targets[i%len(targets)]
		target := registry.MustLookup(name)

		var c *shape.Constraints
		if cfg.Fuzzing.MaxSize > 0 {
			c = shape.WithMaxSize(cfg.Fuzzing.MaxSize)
		}
		v := m.Generate(target, c)
		for round := 0; round < cfg.Fuzzing.MutationRounds; round++ {
			m.Mutate(v, c)
			m.NotifySuccess(v)
		}

		order := cfg.ByteOrder()
		if cfg.RandomEndianness() {
			order = m.RandByteOrder()
		}
		entry, err := writer.SaveWithOrder(name, v, order)
		if err != nil {
			return err
		}
		log.Debug("Generated corpus entry", "type", name, "entry", entry)
	}
	return nil
}
