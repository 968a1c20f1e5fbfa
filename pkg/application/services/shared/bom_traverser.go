package shared

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

const (
	// DefaultMaxDepth bounds BOM nesting; real shop BOMs rarely pass ten levels
	DefaultMaxDepth = 50
	// DefaultMaxNodes bounds the total nodes visited by one run
	DefaultMaxNodes = 1_000_000
)

// Limits bound a traversal so malformed BOM data cannot exhaust time or memory
type Limits struct {
	MaxDepth int
	MaxNodes int
}

// withDefaults fills unset limits
func (l Limits) withDefaults() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxNodes <= 0 {
		l.MaxNodes = DefaultMaxNodes
	}
	return l
}

// NodeVisitor defines the interface for processing nodes during BOM traversal.
// via is the BOM line that led to the node and is nil for the root.
type NodeVisitor interface {
	VisitNode(node *entities.ExplosionNode, item *entities.Item, via *entities.BOMLine) error
}

// VisitorFunc adapts a function to NodeVisitor
type VisitorFunc func(node *entities.ExplosionNode, item *entities.Item, via *entities.BOMLine) error

// VisitNode calls f
func (f VisitorFunc) VisitNode(node *entities.ExplosionNode, item *entities.Item, via *entities.BOMLine) error {
	return f(node, item, via)
}

// frame is one pending node on the explicit traversal stack
type frame struct {
	node entities.ExplosionNode
	item *entities.Item
	via  *entities.BOMLine
}

// BOMTraverser walks the BOM graph depth-first with an explicit stack.
// The ancestor path travels with every frame, so cycle and depth checks do not depend on the call stack.
// A traverser counts nodes across calls; create one per run.
type BOMTraverser struct {
	index   *Index
	limits  Limits
	today   time.Time
	visited int
}

// NewBOMTraverser creates a traverser over an index. Need-by dates are never moved before today.
func NewBOMTraverser(index *Index, limits Limits, today time.Time) *BOMTraverser {
	return &BOMTraverser{
		index:  index,
		limits: limits.withDefaults(),
		today:  CivilDate(today),
	}
}

// Visited returns the number of nodes visited so far
func (bt *BOMTraverser) Visited() int {
	return bt.visited
}

// Limits returns the effective limits
func (bt *BOMTraverser) Limits() Limits {
	return bt.limits
}

// TraverseDemand explodes a single demand line through the visitor
func (bt *BOMTraverser) TraverseDemand(ctx context.Context, demand *entities.DemandLine, visitor NodeVisitor) error {
	root, ok := bt.index.Item(demand.ItemID)
	if !ok {
		return &entities.UnknownItemError{
			ID:           demand.ItemID,
			ReferencedBy: fmt.Sprintf("demand line %s", demand.OrderID),
		}
	}
	return bt.Traverse(ctx, root, demand.Quantity, demand.NeedBy, visitor)
}

// Traverse visits root and every component reachable from it
func (bt *BOMTraverser) Traverse(
	ctx context.Context,
	root *entities.Item,
	quantity decimal.Decimal,
	needBy time.Time,
	visitor NodeVisitor,
) error {
	stack := []frame{{
		node: entities.ExplosionNode{
			ItemID:   root.ID,
			Quantity: quantity,
			NeedBy:   bt.clamp(CivilDate(needBy)),
			Depth:    0,
			Path:     []entities.ItemID{root.ID},
			Physical: true,
		},
		item: root,
	}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		bt.visited++
		if bt.visited > bt.limits.MaxNodes {
			return &entities.ExplosionTooLargeError{
				Item:  root.ID,
				Nodes: bt.visited,
				Limit: bt.limits.MaxNodes,
			}
		}

		if err := visitor.VisitNode(&current.node, current.item, current.via); err != nil {
			return fmt.Errorf("failed to visit node %s: %w", current.node.ItemID, err)
		}

		children, err := bt.expand(&current)
		if err != nil {
			return err
		}
		// Reverse push keeps visiting order equal to find-number order
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return nil
}

// expand builds child frames for a node, enforcing catalog, cycle, depth and unit rules
func (bt *BOMTraverser) expand(parent *frame) ([]frame, error) {
	lines := bt.index.Children(parent.node.ItemID)
	if len(lines) == 0 {
		return nil, nil
	}

	children := make([]frame, 0, len(lines))
	for _, line := range lines {
		component, ok := bt.index.Item(line.ComponentID)
		if !ok {
			return nil, &entities.UnknownItemError{
				ID:           line.ComponentID,
				ReferencedBy: fmt.Sprintf("BOM line %s -> %s", line.ParentID, line.ComponentID),
			}
		}

		path := make([]entities.ItemID, len(parent.node.Path), len(parent.node.Path)+1)
		copy(path, parent.node.Path)
		path = append(path, component.ID)

		if slices.Contains(parent.node.Path, component.ID) {
			return nil, &entities.CyclicBOMError{Item: component.ID, Path: path}
		}

		depth := parent.node.Depth + 1
		if depth > bt.limits.MaxDepth {
			return nil, &entities.BOMTooDeepError{
				Item:  component.ID,
				Depth: depth,
				Limit: bt.limits.MaxDepth,
				Path:  path,
			}
		}

		factor, err := bt.index.LineFactor(line, component)
		if err != nil {
			return nil, err
		}

		children = append(children, frame{
			node: entities.ExplosionNode{
				ItemID:   component.ID,
				Quantity: parent.node.Quantity.Mul(line.QtyPer).Mul(factor),
				NeedBy:   bt.clamp(parent.node.NeedBy.AddDate(0, 0, -component.LeadTimeDays)),
				Depth:    depth,
				Path:     path,
				Physical: parent.node.Physical && !line.CostOnly,
			},
			item: component,
			via:  line,
		})
	}

	return children, nil
}

// clamp keeps a date from falling before today
func (bt *BOMTraverser) clamp(d time.Time) time.Time {
	if d.Before(bt.today) {
		return bt.today
	}
	return d
}
