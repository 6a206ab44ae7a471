package entity

import (
	"strings"
	"time"
)

// Subscription identifica uma subscription Azure.
type Subscription struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot represents a managed disk snapshot that may be deleted.
type Snapshot struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ResourceGroup    string    `json:"resource_group"`
	SubscriptionID   string    `json:"subscription_id"`
	SubscriptionName string    `json:"subscription_name"`
	TimeCreated      time.Time `json:"time_created"`
	DiskState        string    `json:"disk_state,omitempty"`
	CreatedBy        string    `json:"created_by,omitempty"`
	AgeDays          int       `json:"age_days"`
}

// WithAge retorna uma cópia do snapshot com AgeDays calculado em relação a now.
// Datas no futuro resultam em idade zero.
func (s Snapshot) WithAge(now time.Time) Snapshot {
	age := int(now.Sub(s.TimeCreated).Hours() / 24)
	if age < 0 {
		age = 0
	}
	s.AgeDays = age
	return s
}

// TimeRange delimita a janela de criação usada na descoberta de snapshots.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// CurrentMonthRange returns the range from the first instant of now's UTC month
// to the last second of that month.
func CurrentMonthRange(now time.Time) TimeRange {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return TimeRange{Start: start, End: end}
}

// SubscriptionBatch agrupa os snapshots que compartilham o mesmo contexto de subscription.
type SubscriptionBatch struct {
	SubscriptionID   string
	SubscriptionName string
	Snapshots        []Snapshot
}

// ResourceGroups returns the distinct resource groups of the batch in first-seen order.
func (b SubscriptionBatch) ResourceGroups() []string {
	seen := make(map[string]bool)
	groups := []string{}
	for _, s := range b.Snapshots {
		if !seen[s.ResourceGroup] {
			seen[s.ResourceGroup] = true
			groups = append(groups, s.ResourceGroup)
		}
	}
	return groups
}

// MatchesKeyword reports whether name contains keyword, ignoring case.
// An empty keyword matches everything.
func MatchesKeyword(name, keyword string) bool {
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(keyword))
}
