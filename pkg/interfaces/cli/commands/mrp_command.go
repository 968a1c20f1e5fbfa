package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/printshop-mrp/pkg/application/services/mrp"
	"github.com/vsinha/printshop-mrp/pkg/application/services/orchestration"
	"github.com/vsinha/printshop-mrp/pkg/config"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/repositories"
	"github.com/vsinha/printshop-mrp/pkg/domain/services"
	"github.com/vsinha/printshop-mrp/pkg/infrastructure/events"
	"github.com/vsinha/printshop-mrp/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/printshop-mrp/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/printshop-mrp/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/printshop-mrp/pkg/interfaces/cli/output"
)

const dateLayout = "2006-01-02"

// Config holds configuration for the MRP command. Zero values fall back to the application config.
type Config struct {
	ScenarioDir  string
	ItemsFile    string
	BOMFile      string
	DemandsFile  string
	ReceiptsFile string
	Source       string // csv, sqlite or postgres
	SQLitePath   string
	ImportSQLite string // copy the CSV scenario into this SQLite database and stop
	OutputDir    string
	Format       string
	Today        string // YYYY-MM-DD
	Period       string
	MaxDepth     int
	MaxNodes     int
	Verbose      bool
	CostRollup   bool
	CriticalPath bool
	// ComponentsOnly skips netting the demanded items themselves
	ComponentsOnly bool
	Validate       bool
	Help           bool
}

// MRPCommand handles the main MRP execution logic
type MRPCommand struct {
	config Config
	app    *config.Config
	log    zerolog.Logger
	stdout io.Writer
}

// NewMRPCommand creates a new MRP command with the given configuration
func NewMRPCommand(cfg Config, app *config.Config, log zerolog.Logger, stdout io.Writer) *MRPCommand {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &MRPCommand{
		config: cfg,
		app:    app,
		log:    log.With().Str("component", "cli").Logger(),
		stdout: stdout,
	}
}

// Execute runs the MRP command
func (c *MRPCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	source, closeSource, err := c.openSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	if c.config.ImportSQLite != "" {
		return c.importSnapshot(ctx, source)
	}
	if c.config.Validate {
		return c.validateSnapshot(ctx, source)
	}

	opts, err := c.runOptions()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	period, err := mrp.ParsePeriodBucket(c.app.MRP.Period)
	if err != nil {
		return fmt.Errorf("invalid MRP_PERIOD: %w", err)
	}
	engine := mrp.NewMRPServiceWithConfig(mrp.EngineConfig{
		MaxDepth: c.app.MRP.MaxDepth,
		MaxNodes: c.app.MRP.MaxNodes,
		Period:   period,
	})

	store := events.NewInMemoryEventStore(c.log)
	if err := store.Subscribe([]string{events.ShortageDetectedEvent}, &events.HandlerFunc{
		Types: []string{events.ShortageDetectedEvent},
		Fn:    c.logShortage,
	}); err != nil {
		return fmt.Errorf("failed to subscribe to shortage events: %w", err)
	}

	orchestrator := orchestration.NewPlanningOrchestrator(engine, source, store, c.log)
	result, err := orchestrator.RunCompletePlanning(ctx, opts)
	store.Wait()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintln(c.stdout, result.GetSummary())
		fmt.Fprintln(c.stdout)
	}

	if err := output.Generate(c.stdout, result, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
	}); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	return nil
}

// validateInputs validates the command configuration
func (c *MRPCommand) validateInputs() error {
	switch c.sourceKind() {
	case "csv":
		if c.config.ScenarioDir == "" &&
			(c.config.ItemsFile == "" || c.config.BOMFile == "" || c.config.DemandsFile == "") {
			return fmt.Errorf("must specify either -scenario directory or -items, -bom and -demands files")
		}
	case "sqlite", "postgres":
		if c.config.ImportSQLite != "" {
			return fmt.Errorf("-import-sqlite reads a CSV scenario, not a %s source", c.sourceKind())
		}
	default:
		return fmt.Errorf("unknown source %q (expected csv, sqlite or postgres)", c.sourceKind())
	}

	if c.config.MaxDepth < 0 || c.config.MaxNodes < 0 {
		return fmt.Errorf("limits cannot be negative")
	}
	return nil
}

func (c *MRPCommand) sourceKind() string {
	if c.config.Source != "" {
		return strings.ToLower(c.config.Source)
	}
	return c.app.Source.Kind
}

// openSource builds the snapshot source; the returned func releases it
func (c *MRPCommand) openSource(ctx context.Context) (repositories.SnapshotSource, func(), error) {
	switch c.sourceKind() {
	case "sqlite":
		path := c.config.SQLitePath
		if path == "" {
			path = c.app.Source.SQLitePath
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		c.log.Debug().Str("path", path).Msg("reading snapshot from sqlite")
		return store, func() { store.Close() }, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, c.app.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		c.log.Debug().Str("host", c.app.DB.Host).Str("db", c.app.DB.DBName).Msg("reading snapshot from postgres")
		return postgres.NewSnapshotSource(pool), pool.Close, nil

	default:
		files := csv.Files{
			Items:    c.config.ItemsFile,
			BOM:      c.config.BOMFile,
			Demands:  c.config.DemandsFile,
			Receipts: c.config.ReceiptsFile,
		}
		if c.config.ScenarioDir != "" {
			files = csv.ScenarioFiles(c.config.ScenarioDir)
		}
		for name, path := range map[string]string{"items": files.Items, "BOM": files.BOM, "demands": files.Demands} {
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				return nil, nil, fmt.Errorf("%s file not found: %s", name, path)
			}
		}
		c.log.Debug().Str("items", files.Items).Str("bom", files.BOM).Str("demands", files.Demands).Msg("reading snapshot from csv")
		return csv.NewSnapshotSource(files), func() {}, nil
	}
}

func (c *MRPCommand) runOptions() (mrp.RunOptions, error) {
	opts := mrp.RunOptions{
		MaxDepth:             c.config.MaxDepth,
		MaxNodes:             c.config.MaxNodes,
		IncludeCostRollup:    c.config.CostRollup,
		IncludeCriticalPaths: c.config.CriticalPath,
		ComponentsOnly:       c.config.ComponentsOnly,
	}

	if c.config.Today != "" {
		today, err := time.Parse(dateLayout, c.config.Today)
		if err != nil {
			return opts, fmt.Errorf("invalid -today %q (expected YYYY-MM-DD)", c.config.Today)
		}
		opts.Today = today
	}

	if c.config.Period != "" {
		period, err := mrp.ParsePeriodBucket(c.config.Period)
		if err != nil {
			return opts, err
		}
		opts.Period = &period
	}

	return opts, nil
}

// validateSnapshot runs the structural BOM checks without planning
func (c *MRPCommand) validateSnapshot(ctx context.Context, source repositories.SnapshotSource) error {
	snapshot, err := source.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	validator := services.NewBOMValidator()
	results := []*services.ValidationResult{
		validator.ValidateItemUniqueness(snapshot.Items),
		validator.ValidateBOMItemConsistency(snapshot.BOMLines, snapshot.Items),
	}

	var errs, warnings []string
	for _, r := range results {
		errs = append(errs, r.Errors...)
		warnings = append(warnings, r.Warnings...)
	}

	fmt.Fprintf(c.stdout, "Validated %d items, %d BOM lines, %d demand lines\n",
		len(snapshot.Items), len(snapshot.BOMLines), len(snapshot.Demands))
	for _, w := range warnings {
		fmt.Fprintf(c.stdout, "  warning: %s\n", w)
	}
	for _, e := range errs {
		fmt.Fprintf(c.stdout, "  error: %s\n", e)
	}

	if len(errs) > 0 {
		return fmt.Errorf("BOM validation failed with %d errors", len(errs))
	}
	fmt.Fprintln(c.stdout, "BOM is valid")
	return nil
}

// importSnapshot copies a CSV scenario into a SQLite database
func (c *MRPCommand) importSnapshot(ctx context.Context, source repositories.SnapshotSource) error {
	snapshot, err := source.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	store, err := sqlite.Open(ctx, c.config.ImportSQLite)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}

	c.log.Info().
		Str("path", c.config.ImportSQLite).
		Int("items", len(snapshot.Items)).
		Int("bom_lines", len(snapshot.BOMLines)).
		Int("demand_lines", len(snapshot.Demands)).
		Int("receipts", len(snapshot.Receipts)).
		Msg("scenario imported")
	fmt.Fprintf(c.stdout, "Imported %d items, %d BOM lines, %d demand lines, %d receipts into %s\n",
		len(snapshot.Items), len(snapshot.BOMLines), len(snapshot.Demands), len(snapshot.Receipts), c.config.ImportSQLite)
	return nil
}

func (c *MRPCommand) logShortage(event events.Event) error {
	payload, ok := event.Data().(events.ShortageDetected)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Data(), event.Type())
	}
	req := payload.Requirement
	c.log.Debug().
		Str("run_id", payload.RunID).
		Str("item_id", string(req.ItemID)).
		Str("need_by", req.Period.Format(dateLayout)).
		Str("shortage", req.Shortage.String()).
		Str("severity", req.Severity.String()).
		Msg("shortage detected")
	return nil
}

// DescribeError renders structural engine errors with their kind and the item or path involved
func DescribeError(err error) string {
	var (
		cyclic   *entities.CyclicBOMError
		tooDeep  *entities.BOMTooDeepError
		unknown  *entities.UnknownItemError
		units    *entities.IncompatibleUnitsError
		tooLarge *entities.ExplosionTooLargeError
		invalid  *entities.InvalidSnapshotError
	)

	switch {
	case errors.As(err, &cyclic):
		return fmt.Sprintf("CyclicBOM: item %s, path %s", cyclic.Item, entities.FormatPath(cyclic.Path))
	case errors.As(err, &tooDeep):
		return fmt.Sprintf("BOMTooDeep: item %s at depth %d (limit %d), path %s",
			tooDeep.Item, tooDeep.Depth, tooDeep.Limit, entities.FormatPath(tooDeep.Path))
	case errors.As(err, &unknown):
		return fmt.Sprintf("UnknownItem: %s (referenced by %s)", unknown.ID, unknown.ReferencedBy)
	case errors.As(err, &units):
		return fmt.Sprintf("IncompatibleUnits: item %s, %s -> %s", units.Item, units.From, units.To)
	case errors.As(err, &tooLarge):
		return fmt.Sprintf("ExplosionTooLarge: item %s, %d nodes (limit %d)", tooLarge.Item, tooLarge.Nodes, tooLarge.Limit)
	case errors.As(err, &invalid):
		return fmt.Sprintf("InvalidSnapshot: %s", invalid.Reason)
	default:
		return err.Error()
	}
}

// showHelp displays the help message
func (c *MRPCommand) showHelp() {
	fmt.Fprintf(c.stdout, `MRP Engine CLI - Material Requirements Planning for Print Shops

USAGE:
    mrp -scenario <directory>                       # CSV scenario directory
    mrp -items <file> -bom <file> -demands <file>   # individual CSV files
    mrp -source sqlite -sqlite <file>               # shop SQLite database
    mrp -source postgres                            # PostgreSQL (DATABASE_URL or DB_*)
    mrp generate -help                              # random scenario generator

OPTIONS:
    -scenario <dir>       Path to scenario directory containing CSV files
    -items <file>         Path to items CSV file
    -bom <file>           Path to BOM CSV file
    -demands <file>       Path to demands CSV file
    -receipts <file>      Path to scheduled receipts CSV file (optional)
    -source <kind>        Snapshot source: csv, sqlite, postgres (default: MRP_SOURCE)
    -sqlite <file>        SQLite database path (default: SQLITE_PATH)
    -import-sqlite <file> Copy the CSV scenario into a SQLite database and exit
    -output <dir>         Output directory for results (required for csv and pdf)
    -format <fmt>         Output format: %s (default: text)
    -today <date>         Planning date, YYYY-MM-DD (default: current date)
    -period <bucket>      Aggregation bucket: day or week (default: MRP_PERIOD)
    -max-depth <n>        BOM depth limit (default: MRP_MAX_DEPTH)
    -max-nodes <n>        Explosion node budget (default: MRP_MAX_NODES)
    -cost                 Include per-demand cost roll-up
    -critical-path        Include critical path analysis per demand line
    -components-only      Net only consumed components, not the demanded items
    -validate             Validate the BOM structure only
    -verbose              Enable verbose output
    -help                 Show this help message

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── items.csv       # Item catalog with stock position
    ├── bom.csv         # Bill of Materials
    ├── demands.csv     # Order lines
    └── receipts.csv    # Open purchase/production orders (optional)

CSV FILE FORMATS:

items.csv:
    item_id,description,type,unit_of_measure,on_hand,allocated,lead_time_days,unit_cost
    BROCHURE-A4,A4 brochure,FinishedGood,ea,50,20,2,0.40

bom.csv:
    parent_id,component_id,qty_per,unit_of_measure,conversion_factor,cost_only,find_number
    BROCHURE-A4,INK-CMYK,1.5,ml,,false,20

demands.csv:
    order_id,item_id,quantity,need_by
    SO-100,BROCHURE-A4,500,2025-03-24

receipts.csv:
    item_id,quantity,due_date,source
    PAPER-A4-GLOSS,2000,2025-03-13,PO-7001

EXAMPLES:
    mrp -scenario example/printshop -verbose
    mrp -scenario example/printshop -critical-path -cost
    mrp -scenario example/printshop -format pdf -output results/
    mrp -scenario example/printshop -import-sqlite shop.db
    mrp -source sqlite -sqlite shop.db -period week -format json
`, strings.Join(output.Formats, ", "))
}
