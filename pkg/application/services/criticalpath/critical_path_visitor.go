package criticalpath

import (
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// CriticalPathVisitor implements shared.NodeVisitor and keeps the longest lead-time chain seen so far.
// The traverser visits in pre-order, so the chain to the current node is the stack of its ancestors.
type CriticalPathVisitor struct {
	chain []entities.CriticalPathNode
	best  []entities.CriticalPathNode
	paths int
}

// NewCriticalPathVisitor creates a new critical path visitor
func NewCriticalPathVisitor() *CriticalPathVisitor {
	return &CriticalPathVisitor{}
}

// VisitNode extends the current chain with a physical node and compares it with the best chain
func (v *CriticalPathVisitor) VisitNode(node *entities.ExplosionNode, item *entities.Item, _ *entities.BOMLine) error {
	// Cost-only subtrees take no production time
	if !node.Physical {
		return nil
	}

	v.chain = v.chain[:node.Depth]
	cumulative := item.LeadTimeDays
	if node.Depth > 0 {
		cumulative += v.chain[node.Depth-1].CumulativeDays
	}
	v.chain = append(v.chain, entities.CriticalPathNode{
		ItemID:         item.ID,
		LeadTimeDays:   item.LeadTimeDays,
		CumulativeDays: cumulative,
		Level:          node.Depth,
	})
	v.paths++

	if v.better(v.chain) {
		v.best = append(v.best[:0], v.chain...)
	}
	return nil
}

// better orders chains by total lead time, then by length, then by the item ids along the chain
func (v *CriticalPathVisitor) better(candidate []entities.CriticalPathNode) bool {
	if len(v.best) == 0 {
		return true
	}
	ct := candidate[len(candidate)-1].CumulativeDays
	bt := v.best[len(v.best)-1].CumulativeDays
	if ct != bt {
		return ct > bt
	}
	if len(candidate) != len(v.best) {
		return len(candidate) > len(v.best)
	}
	for i := range candidate {
		if candidate[i].ItemID != v.best[i].ItemID {
			return candidate[i].ItemID < v.best[i].ItemID
		}
	}
	return false
}

// Result builds the critical path from the best chain
func (v *CriticalPathVisitor) Result() entities.CriticalPath {
	result := entities.CriticalPath{}
	if len(v.best) == 0 {
		return result
	}

	details := make([]entities.CriticalPathNode, len(v.best))
	copy(details, v.best)

	result.TopLevelItem = details[0].ItemID
	result.TotalLeadTime = details[len(details)-1].CumulativeDays
	result.PathDetails = details
	result.Path = make([]entities.ItemID, len(details))

	longest := -1
	for i, n := range details {
		result.Path[i] = n.ItemID
		if n.LeadTimeDays > longest {
			longest = n.LeadTimeDays
			result.BottleneckItem = n.ItemID
		}
	}
	return result
}

// PathsEvaluated returns the number of chains compared
func (v *CriticalPathVisitor) PathsEvaluated() int {
	return v.paths
}
