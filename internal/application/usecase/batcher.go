package usecase

import "github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"

// PartitionBySubscription groups snapshots by subscription id so each
// subscription context is entered once. Batches come out in first-seen order
// and snapshots keep their relative order inside a batch.
func PartitionBySubscription(snapshots []entity.Snapshot) []entity.SubscriptionBatch {
	index := make(map[string]int)
	batches := []entity.SubscriptionBatch{}

	for _, s := range snapshots {
		i, ok := index[s.SubscriptionID]
		if !ok {
			i = len(batches)
			index[s.SubscriptionID] = i
			batches = append(batches, entity.SubscriptionBatch{
				SubscriptionID:   s.SubscriptionID,
				SubscriptionName: s.SubscriptionName,
			})
		}
		batches[i].Snapshots = append(batches[i].Snapshots, s)
	}

	return batches
}
