package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vsinha/printshop-mrp/pkg/config"
	"github.com/vsinha/printshop-mrp/pkg/interfaces/cli/commands"
	"github.com/vsinha/printshop-mrp/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "generate" {
		runGenerate(ctx, log, os.Args[2:])
		return
	}

	// Command line flags
	var (
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		itemsFile      = flag.String("items", "", "Path to items CSV file")
		bomFile        = flag.String("bom", "", "Path to BOM CSV file")
		demandsFile    = flag.String("demands", "", "Path to demands CSV file")
		receiptsFile   = flag.String("receipts", "", "Path to scheduled receipts CSV file (optional)")
		source         = flag.String("source", "", "Snapshot source: csv, sqlite, postgres")
		sqlitePath     = flag.String("sqlite", "", "SQLite database path")
		importSQLite   = flag.String("import-sqlite", "", "Copy the CSV scenario into this SQLite database and exit")
		outputDir      = flag.String("output", "", "Output directory for results (optional)")
		format         = flag.String("format", "text", "Output format: text, json, csv, pdf, svg")
		today          = flag.String("today", "", "Planning date, YYYY-MM-DD")
		period         = flag.String("period", "", "Aggregation bucket: day or week")
		maxDepth       = flag.Int("max-depth", 0, "BOM depth limit")
		maxNodes       = flag.Int("max-nodes", 0, "Explosion node budget")
		verbose        = flag.Bool("verbose", false, "Enable verbose output")
		costRollup     = flag.Bool("cost", false, "Include per-demand cost roll-up")
		criticalPath   = flag.Bool("critical-path", false, "Perform critical path analysis")
		componentsOnly = flag.Bool("components-only", false, "Net only consumed components, not the demanded items")
		validate       = flag.Bool("validate", false, "Validate the BOM structure only")
		help           = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	cmdConfig := commands.Config{
		ScenarioDir:    *scenarioDir,
		ItemsFile:      *itemsFile,
		BOMFile:        *bomFile,
		DemandsFile:    *demandsFile,
		ReceiptsFile:   *receiptsFile,
		Source:         *source,
		SQLitePath:     *sqlitePath,
		ImportSQLite:   *importSQLite,
		OutputDir:      *outputDir,
		Format:         *format,
		Today:          *today,
		Period:         *period,
		MaxDepth:       *maxDepth,
		MaxNodes:       *maxNodes,
		Verbose:        *verbose,
		CostRollup:     *costRollup,
		CriticalPath:   *criticalPath,
		ComponentsOnly: *componentsOnly,
		Validate:       *validate,
		Help:           *help,
	}

	cmd := commands.NewMRPCommand(cmdConfig, cfg, log.Zerolog(), os.Stdout)
	if err := cmd.Execute(ctx); err != nil {
		log.Error().Err(err).Msg("mrp run failed")
		fmt.Fprintf(os.Stderr, "Error: %s\n", commands.DescribeError(err))
		os.Exit(1)
	}
}

func runGenerate(ctx context.Context, log *logger.Logger, args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		items     = fs.Int("items", 0, "Number of items to generate")
		maxDepth  = fs.Int("max-depth", 0, "Maximum depth of BOM tree")
		demands   = fs.Int("demands", 0, "Number of order lines to generate")
		inventory = fs.Float64("inventory", 1.0, "Stock multiplier")
		receipts  = fs.Float64("receipts", 0.25, "Share of raw materials with an open purchase order")
		outputDir = fs.String("output", "", "Output directory for generated files")
		today     = fs.String("today", "", "Planning date, YYYY-MM-DD")
		seed      = fs.Int64("seed", 0, "Random seed")
		verbose   = fs.Bool("verbose", false, "Enable verbose output")
		help      = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(args)

	cmd := commands.NewGenerateCommand(commands.GenerateConfig{
		Items:     *items,
		MaxDepth:  *maxDepth,
		Demands:   *demands,
		Inventory: *inventory,
		Receipts:  *receipts,
		OutputDir: *outputDir,
		Today:     *today,
		Seed:      *seed,
		Help:      *help,
		Verbose:   *verbose,
	}, log.Zerolog(), os.Stdout)

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
