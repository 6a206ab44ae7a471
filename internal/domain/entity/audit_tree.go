package entity

import "sort"

// AuditTree is the ownership hierarchy subscription -> resource group -> snapshot ids.
type AuditTree struct {
	Subscriptions []SubscriptionNode `json:"subscriptions"`
}

// SubscriptionNode groups resource groups under one subscription.
type SubscriptionNode struct {
	Name           string              `json:"name"`
	ResourceGroups []ResourceGroupNode `json:"resource_groups"`
}

// ResourceGroupNode lists the snapshot ids of one resource group.
type ResourceGroupNode struct {
	Name        string   `json:"name"`
	SnapshotIDs []string `json:"snapshot_ids"`
}

// BuildAuditTree builds the tree once from a snapshot list. Subscriptions and
// resource groups are sorted by name; snapshot ids keep their input order.
func BuildAuditTree(snapshots []Snapshot) AuditTree {
	index := make(map[string]map[string][]string)
	for _, s := range snapshots {
		groups, ok := index[s.SubscriptionName]
		if !ok {
			groups = make(map[string][]string)
			index[s.SubscriptionName] = groups
		}
		groups[s.ResourceGroup] = append(groups[s.ResourceGroup], s.ID)
	}

	tree := AuditTree{Subscriptions: make([]SubscriptionNode, 0, len(index))}
	for _, subName := range sortedKeys(index) {
		groups := index[subName]
		node := SubscriptionNode{Name: subName}
		rgNames := make([]string, 0, len(groups))
		for rg := range groups {
			rgNames = append(rgNames, rg)
		}
		sort.Strings(rgNames)
		for _, rg := range rgNames {
			node.ResourceGroups = append(node.ResourceGroups, ResourceGroupNode{Name: rg, SnapshotIDs: groups[rg]})
		}
		tree.Subscriptions = append(tree.Subscriptions, node)
	}
	return tree
}

// BuildReportAuditTree builds the tree from the snapshots that have an outcome with the given status.
func BuildReportAuditTree(report *DeletionReport, status OutcomeStatus) AuditTree {
	var snapshots []Snapshot
	for _, o := range report.Outcomes() {
		if o.Status == status {
			snapshots = append(snapshots, o.Snapshot)
		}
	}
	return BuildAuditTree(snapshots)
}

func sortedKeys(m map[string]map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
