package testing

import (
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/infrastructure/repositories/memory"
)

// Repositories bundles in-memory repositories loaded from one snapshot
type Repositories struct {
	Items    *memory.ItemRepository
	BOMs     *memory.BOMRepository
	Demands  *memory.DemandRepository
	Receipts *memory.ReceiptRepository
}

// BuildRepositories loads a snapshot into fresh in-memory repositories
func BuildRepositories(snapshot *entities.Snapshot) *Repositories {
	repos := &Repositories{
		Items:    memory.NewItemRepository(len(snapshot.Items)),
		BOMs:     memory.NewBOMRepository(len(snapshot.BOMLines)),
		Demands:  memory.NewDemandRepository(),
		Receipts: memory.NewReceiptRepository(),
	}

	for _, item := range snapshot.Items {
		repos.Items.AddItem(item)
	}
	for _, line := range snapshot.BOMLines {
		repos.BOMs.AddBOMLine(line)
	}

	demands := make([]*entities.DemandLine, len(snapshot.Demands))
	for i := range snapshot.Demands {
		demands[i] = &snapshot.Demands[i]
	}
	if err := repos.Demands.LoadDemands(demands); err != nil {
		panic(err)
	}

	receipts := make([]*entities.ScheduledReceipt, len(snapshot.Receipts))
	for i := range snapshot.Receipts {
		receipts[i] = &snapshot.Receipts[i]
	}
	if err := repos.Receipts.LoadReceipts(receipts); err != nil {
		panic(err)
	}

	return repos
}

// SnapshotReader returns a snapshot source over the repositories
func (r *Repositories) SnapshotReader() *memory.SnapshotReader {
	return memory.NewSnapshotReader(r.Items, r.BOMs, r.Demands, r.Receipts)
}
