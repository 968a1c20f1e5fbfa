package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Items     int     // Total number of items to generate
	MaxDepth  int     // Maximum depth of BOM tree
	Demands   int     // Number of order lines to generate
	Inventory float64 // Stock multiplier (e.g., 0.5 = half coverage, 4.0 = 4x coverage)
	Receipts  float64 // Share of raw materials with an open purchase order
	OutputDir string  // Output directory for generated files
	Today     string  // First possible need-by date, YYYY-MM-DD
	Seed      int64   // Random seed for reproducible generation
	Help      bool    // Show help
	Verbose   bool    // Verbose output
}

// GenerateCommand writes random print-shop scenarios for load and regression testing
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	log    zerolog.Logger
	stdout io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig, log zerolog.Logger, stdout io.Writer) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if stdout == nil {
		stdout = os.Stdout
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		log:    log.With().Str("component", "generate").Int64("seed", seed).Logger(),
		stdout: stdout,
	}
}

// scenarioNode is one item while the BOM graph is being grown
type scenarioNode struct {
	id       entities.ItemID
	level    int
	root     bool
	children []scenarioEdge
	parents  []*scenarioNode
	material *materialKind
}

type scenarioEdge struct {
	child  *scenarioNode
	qtyPer decimal.Decimal
}

// materialKind describes a family of consumables a leaf item can be
type materialKind struct {
	prefix   string
	uom      string
	lineUOM  string // unit the BOM line quantity is written in
	minQty   float64
	maxQty   float64
	minCost  float64
	maxCost  float64
	leadDays [2]int
}

var materialKinds = []materialKind{
	{prefix: "PAPER", uom: "sheet", minQty: 1, maxQty: 8, minCost: 0.01, maxCost: 0.12, leadDays: [2]int{3, 10}},
	{prefix: "INK", uom: "l", lineUOM: "ml", minQty: 0.5, maxQty: 6, minCost: 18, maxCost: 65, leadDays: [2]int{5, 15}},
	{prefix: "FILM", uom: "m", lineUOM: "cm", minQty: 10, maxQty: 60, minCost: 0.8, maxCost: 3.5, leadDays: [2]int{7, 21}},
	{prefix: "WIRE", uom: "ea", minQty: 1, maxQty: 4, minCost: 0.02, maxCost: 0.3, leadDays: [2]int{2, 8}},
}

// runSize is the number of units a typical order line asks for; stock is sized against it
const runSize = 250

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}
	if err := cmd.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if cmd.config.Today != "" {
		parsed, err := time.Parse(dateLayout, cmd.config.Today)
		if err != nil {
			return fmt.Errorf("validation error: invalid -today %q (expected YYYY-MM-DD)", cmd.config.Today)
		}
		today = parsed
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.stdout,
			"Generating scenario with %d items, max depth %d, %d demands, %.1fx inventory\n",
			cmd.config.Items, cmd.config.MaxDepth, cmd.config.Demands, cmd.config.Inventory)
		fmt.Fprintf(cmd.stdout, "Output directory: %s\n", cmd.config.OutputDir)
	}

	nodes := cmd.generateBOMGraph()
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot, err := cmd.buildSnapshot(nodes, today)
	if err != nil {
		return fmt.Errorf("failed to build scenario: %w", err)
	}

	if err := csv.WriteScenario(cmd.config.OutputDir, snapshot); err != nil {
		return err
	}

	cmd.log.Info().
		Str("dir", cmd.config.OutputDir).
		Int("items", len(snapshot.Items)).
		Int("bom_lines", len(snapshot.BOMLines)).
		Int("demand_lines", len(snapshot.Demands)).
		Int("receipts", len(snapshot.Receipts)).
		Msg("scenario generated")
	if cmd.config.Verbose {
		fmt.Fprintf(cmd.stdout, "Scenario generated successfully in %s\n", cmd.config.OutputDir)
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	switch {
	case cmd.config.OutputDir == "":
		return fmt.Errorf("-output is required")
	case cmd.config.Items < 2:
		return fmt.Errorf("-items must be at least 2")
	case cmd.config.MaxDepth < 1:
		return fmt.Errorf("-max-depth must be at least 1")
	case cmd.config.Demands < 1:
		return fmt.Errorf("-demands must be at least 1")
	case cmd.config.Inventory < 0:
		return fmt.Errorf("-inventory cannot be negative")
	case cmd.config.Receipts < 0 || cmd.config.Receipts > 1:
		return fmt.Errorf("-receipts must be between 0 and 1")
	}
	return nil
}

// generateBOMGraph grows products level by level, sharing about one in five components
func (cmd *GenerateCommand) generateBOMGraph() []*scenarioNode {
	var nodes []*scenarioNode

	numRoots := max(1, cmd.config.Items/50+cmd.rand.Intn(3))
	numRoots = min(numRoots, cmd.config.Items-1)

	var roots []*scenarioNode
	for i := 0; i < numRoots; i++ {
		node := &scenarioNode{id: entities.ItemID(fmt.Sprintf("JOB-%03d", i+1)), root: true}
		nodes = append(nodes, node)
		roots = append(roots, node)
	}

	generated := numRoots
	currentLevel := roots
	level := 0

	for level < cmd.config.MaxDepth && generated < cmd.config.Items {
		level++
		var nextLevel []*scenarioNode

		for _, parent := range currentLevel {
			numChildren := 2 + cmd.rand.Intn(5)

			for c := 0; c < numChildren && generated < cmd.config.Items; c++ {
				var child *scenarioNode
				if level > 1 && cmd.rand.Float64() < 0.2 {
					if candidates := cmd.findShareableParts(nodes, level, parent); len(candidates) > 0 {
						child = candidates[cmd.rand.Intn(len(candidates))]
					}
				}

				if child == nil {
					child = &scenarioNode{
						id:    entities.ItemID(fmt.Sprintf("PART-L%d-%04d", level, generated)),
						level: level,
					}
					nodes = append(nodes, child)
					nextLevel = append(nextLevel, child)
					generated++
				}

				cmd.link(parent, child)
			}
		}

		if len(nextLevel) == 0 {
			break
		}
		currentLevel = nextLevel
	}

	for generated < cmd.config.Items {
		node := &scenarioNode{
			id:    entities.ItemID(fmt.Sprintf("MAT-%04d", generated)),
			level: level + 1,
		}
		nodes = append(nodes, node)
		cmd.link(currentLevel[cmd.rand.Intn(len(currentLevel))], node)
		generated++
	}

	for _, node := range nodes {
		if len(node.children) == 0 && !node.root {
			node.material = &materialKinds[cmd.rand.Intn(len(materialKinds))]
		}
	}
	for _, node := range nodes {
		for i := range node.children {
			node.children[i].qtyPer = cmd.generateQtyPer(node.children[i].child)
		}
	}

	return nodes
}

func (cmd *GenerateCommand) link(parent, child *scenarioNode) {
	for _, edge := range parent.children {
		if edge.child == child {
			return
		}
	}
	parent.children = append(parent.children, scenarioEdge{child: child})
	child.parents = append(child.parents, parent)
}

// findShareableParts finds existing parts that can be reused without creating a cycle
func (cmd *GenerateCommand) findShareableParts(nodes []*scenarioNode, level int, parent *scenarioNode) []*scenarioNode {
	var candidates []*scenarioNode
	for _, node := range nodes {
		if node.root || node == parent || node.level < level-1 || len(node.parents) >= 3 {
			continue
		}
		if !isAncestor(node, parent) {
			candidates = append(candidates, node)
		}
	}
	return candidates
}

// isAncestor reports whether candidate sits above node in the graph
func isAncestor(candidate, node *scenarioNode) bool {
	visited := make(map[*scenarioNode]bool)
	stack := []*scenarioNode{node}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, p := range current.parents {
			if p == candidate {
				return true
			}
			stack = append(stack, p)
		}
	}
	return false
}

func (cmd *GenerateCommand) generateQtyPer(child *scenarioNode) decimal.Decimal {
	if child.material == nil {
		return decimal.NewFromInt(int64(1 + cmd.rand.Intn(3)))
	}
	m := child.material
	qty := m.minQty + cmd.rand.Float64()*(m.maxQty-m.minQty)
	return decimal.NewFromFloat(qty).Round(1)
}

func (cmd *GenerateCommand) randomMoney(lo, hi float64) decimal.Decimal {
	return decimal.NewFromFloat(lo + cmd.rand.Float64()*(hi-lo)).Round(2)
}

// buildSnapshot turns the grown graph into catalog, BOM, demand and receipt rows
func (cmd *GenerateCommand) buildSnapshot(nodes []*scenarioNode, today time.Time) (*entities.Snapshot, error) {
	snapshot := &entities.Snapshot{TakenAt: today}

	perRun := cmd.unitsPerRun(nodes)

	for _, node := range nodes {
		item, err := cmd.generateItem(node, perRun[node])
		if err != nil {
			return nil, err
		}
		snapshot.Items = append(snapshot.Items, *item)
	}

	for _, parent := range nodes {
		for i, edge := range parent.children {
			lineUOM := ""
			if edge.child.material != nil {
				lineUOM = edge.child.material.lineUOM
			}
			line, err := entities.NewBOMLine(parent.id, edge.child.id, edge.qtyPer, lineUOM, decimal.Zero, false, (i+1)*10)
			if err != nil {
				return nil, err
			}
			snapshot.BOMLines = append(snapshot.BOMLines, *line)
		}
	}

	var roots, materials []*scenarioNode
	for _, node := range nodes {
		switch {
		case node.root:
			roots = append(roots, node)
		case node.material != nil:
			materials = append(materials, node)
		}
	}

	for i := 0; i < cmd.config.Demands; i++ {
		root := roots[cmd.rand.Intn(len(roots))]
		qty := decimal.NewFromInt(int64(50 * (1 + cmd.rand.Intn(20))))
		needBy := today.AddDate(0, 0, 1+cmd.rand.Intn(60))
		demand, err := entities.NewDemandLine(fmt.Sprintf("SO-%04d", i+1), root.id, qty, needBy)
		if err != nil {
			return nil, err
		}
		snapshot.Demands = append(snapshot.Demands, *demand)
	}

	for i, node := range materials {
		if cmd.rand.Float64() >= cmd.config.Receipts {
			continue
		}
		qty := perRun[node].Mul(decimal.NewFromInt(int64(1 + cmd.rand.Intn(4)))).Ceil()
		if !qty.IsPositive() {
			continue
		}
		due := today.AddDate(0, 0, 1+cmd.rand.Intn(30))
		receipt, err := entities.NewScheduledReceipt(node.id, qty, due, fmt.Sprintf("PO-%05d", i+1))
		if err != nil {
			return nil, err
		}
		snapshot.Receipts = append(snapshot.Receipts, *receipt)
	}

	return snapshot, nil
}

// unitsPerRun computes, in each item's own unit, how much one run of every product consumes.
// Nodes are visited in topological order so shared parts accumulate every parent before
// passing demand on.
func (cmd *GenerateCommand) unitsPerRun(nodes []*scenarioNode) map[*scenarioNode]decimal.Decimal {
	totals := make(map[*scenarioNode]decimal.Decimal, len(nodes))
	pending := make(map[*scenarioNode]int, len(nodes))
	var queue []*scenarioNode
	for _, node := range nodes {
		pending[node] = len(node.parents)
		if node.root {
			totals[node] = decimal.NewFromInt(runSize)
			queue = append(queue, node)
		}
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, edge := range node.children {
			qty := totals[node].Mul(edge.qtyPer)
			if edge.child.material != nil && edge.child.material.lineUOM != "" {
				qty = qty.Div(lineUnitsPerItemUnit(edge.child.material))
			}
			totals[edge.child] = totals[edge.child].Add(qty)
			pending[edge.child]--
			if pending[edge.child] == 0 {
				queue = append(queue, edge.child)
			}
		}
	}
	return totals
}

func lineUnitsPerItemUnit(m *materialKind) decimal.Decimal {
	switch m.lineUOM {
	case "ml":
		return decimal.NewFromInt(1000)
	case "cm":
		return decimal.NewFromInt(100)
	default:
		return decimal.NewFromInt(1)
	}
}

func (cmd *GenerateCommand) generateItem(node *scenarioNode, perRun decimal.Decimal) (*entities.Item, error) {
	var (
		description string
		itemType    entities.ItemType
		uom         = "ea"
		leadTime    int
		unitCost    = decimal.Zero
	)

	switch {
	case node.root:
		description = fmt.Sprintf("%s print job", node.id)
		itemType = entities.FinishedGood
		leadTime = 1 + cmd.rand.Intn(3)
	case node.material != nil:
		m := node.material
		description = fmt.Sprintf("%s stock", m.prefix)
		itemType = entities.RawMaterial
		uom = m.uom
		leadTime = m.leadDays[0] + cmd.rand.Intn(m.leadDays[1]-m.leadDays[0]+1)
		unitCost = cmd.randomMoney(m.minCost, m.maxCost)
	default:
		description = fmt.Sprintf("%s printed section", node.id)
		itemType = entities.Component
		leadTime = 1 + cmd.rand.Intn(5)
		unitCost = cmd.randomMoney(0.05, 2)
	}

	onHand := decimal.Zero
	if !node.root {
		onHand = perRun.Mul(decimal.NewFromFloat(cmd.config.Inventory)).Floor()
	}
	allocated := onHand.Mul(decimal.NewFromFloat(cmd.rand.Float64() * 0.1)).Floor()

	return entities.NewItem(node.id, description, itemType, uom, onHand, allocated, leadTime, unitCost)
}

// printHelp shows usage information
func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintln(cmd.stdout, `MRP Scenario Generator

USAGE:
    mrp generate [OPTIONS]

OPTIONS:
    -items <N>         Number of items to generate (required)
    -max-depth <N>     Maximum depth of BOM tree (required)
    -demands <N>       Number of order lines to generate (required)
    -inventory <F>     Stock multiplier (e.g., 0.5 = half coverage, 4.0 = 4x coverage)
    -receipts <F>      Share of raw materials with an open purchase order (default 0.25)
    -output <DIR>      Output directory for generated files (required)
    -today <DATE>      Planning date the need-by dates start from, YYYY-MM-DD
    -seed <N>          Random seed for reproducible generation (optional)
    -verbose           Enable verbose output
    -help              Show this help message

EXAMPLES:
    # Generate small test scenario
    mrp generate -items 100 -max-depth 5 -demands 10 -inventory 0.5 -output ./test_scenario

    # Generate large performance test scenario
    mrp generate -items 30000 -max-depth 8 -demands 50 -inventory 1.2 -output ./large_scenario -verbose

    # Generate reproducible scenario
    mrp generate -items 1000 -max-depth 6 -demands 20 -inventory 0.8 -output ./repro_scenario -seed 12345`)
}
