// Command simulate replays predefined scenarios offline and prints their records.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/ariefcatur/go-barista-dispatch/internal/logger"
	"github.com/ariefcatur/go-barista-dispatch/internal/scenario"
)

func main() {
	var (
		tests    = flag.String("tests", "", "comma separated scenario numbers; empty runs all")
		baristas = flag.Int("baristas", 3, "baristas on shift")
		parallel = flag.Int("parallel", 4, "scenarios replayed at once")
		file     = flag.String("scenarios", "", "YAML scenario catalog; empty uses the built-in one")
		csvDir   = flag.String("csv", "", "directory to write one CSV per scenario into")
		summary  = flag.Bool("summary", false, "omit per-order rows from the JSON output")
		level    = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	log := *logger.GetLoggerConfigured("barista-simulate", *level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("scenario catalog")
	}
	numbers, err := parseTests(*tests, cat)
	if err != nil {
		log.Fatal().Err(err).Msg("tests")
	}

	runner := scenario.NewRunner(cat, scenario.WithBaristas(*baristas), scenario.WithLogger(log))
	recs, err := runner.RunAll(ctx, numbers, *parallel)
	if err != nil {
		log.Fatal().Err(err).Msg("run")
	}

	if *csvDir != "" {
		if err := writeCSVs(*csvDir, recs); err != nil {
			log.Fatal().Err(err).Msg("csv")
		}
	}
	if *summary {
		for i := range recs {
			recs[i].Orders = nil
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		log.Fatal().Err(err).Msg("encode")
	}
}

func loadCatalog(path string) (*scenario.Catalog, error) {
	if path == "" {
		return scenario.Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return scenario.Parse(data)
}

func parseTests(raw string, cat *scenario.Catalog) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return cat.Numbers(), nil
	}
	var out []int
	for _, p := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", p, err)
		}
		if _, err := cat.Get(n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func writeCSVs(dir string, recs []scenario.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, rec := range recs {
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("scenario_%d.csv", rec.TestNumber)))
		if err != nil {
			return err
		}
		err = scenario.WriteCSV(f, rec)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
