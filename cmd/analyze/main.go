// cmd/analyze/main.go
//
// Batch analyzer: runs the same pipeline the HTTP server uses over local
// spreadsheet files and writes one JSON report per input.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/semaphore"

	"github.com/pias-analytics/pias-backend/internal/aggregate"
	"github.com/pias-analytics/pias-backend/internal/cleaner"
	"github.com/pias-analytics/pias-backend/internal/domain"
	"github.com/pias-analytics/pias-backend/internal/ingest"
	"github.com/pias-analytics/pias-backend/internal/metrics"
	"github.com/pias-analytics/pias-backend/internal/resolver"
	"github.com/pias-analytics/pias-backend/pkg/logger"
)

type fileReport struct {
	Source              string                 `json:"source"`
	ProcessedAt         time.Time              `json:"processedAt"`
	Columns             domain.ColumnMap       `json:"columnsDetected"`
	KPIs                domain.KPISummary      `json:"kpis"`
	ReorderData         []domain.ReorderItem   `json:"reorderData"`
	CategoryPerformance []domain.CategoryStats `json:"categoryPerformance"`
	Movers              domain.MoversReport    `json:"movers"`
	Insights            domain.Insights        `json:"insights"`
}

func main() {
	app := &cli.App{
		Name:      "pias-analyze",
		Usage:     "Analyze inventory spreadsheets and write JSON reports",
		ArgsUsage: "FILE [FILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "./reports",
				Usage:   "Directory for generated reports",
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"c"},
				Value:   4,
				Usage:   "Number of files analyzed in parallel",
			},
			&cli.IntFlag{
				Name:  "reorder-limit",
				Value: aggregate.DefaultReorderLimit,
				Usage: "Maximum reorder recommendations per report",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("no input files given", 1)
	}
	logger.SetLevel(c.String("log-level"))

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	limit := c.Int("concurrency")
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(int64(limit))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)

	for _, path := range c.Args().Slice() {
		if err := sem.Acquire(c.Context, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)

			if err := analyzeFile(path, outDir, c.Int("reorder-limit")); err != nil {
				log.Error().Err(err).Str("file", path).Msg("file analysis failed")
				mu.Lock()
				failed = append(failed, path)
				mu.Unlock()
				return
			}
			log.Info().Str("file", path).Msg("report written")
		}(path)
	}
	wg.Wait()

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %s",
			len(failed), c.NArg(), strings.Join(failed, ", "))
	}
	return nil
}

func analyzeFile(path, outDir string, reorderLimit int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}

	table, err := ingest.Read(filepath.Base(path), data)
	if err != nil {
		return err
	}

	cols := resolver.Resolve(table.Headers)
	if err := resolver.Validate(cols); err != nil {
		return err
	}

	products, err := cleaner.Clean(table, cols)
	if err != nil {
		return err
	}
	metrics.NewCalculator().Derive(products, cols)

	report := fileReport{
		Source:              path,
		ProcessedAt:         time.Now(),
		Columns:             cols,
		KPIs:                aggregate.Summary(products),
		ReorderData:         aggregate.PriorityReorders(products, reorderLimit),
		CategoryPerformance: aggregate.CategoryPerformance(products),
		Movers:              aggregate.Movers(products),
		Insights:            aggregate.BuildInsights(products),
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode report for %s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outDir, base+".report.json")
	if err := os.WriteFile(outPath, encoded, 0644); err != nil {
		return fmt.Errorf("could not write report %s: %w", outPath, err)
	}
	return nil
}
