package usecase

import (
	"strings"
	"time"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
)

// Environment is the deployment tier a subscription belongs to.
type Environment string

const (
	EnvironmentNonProd Environment = "non-prod"
	EnvironmentProd    Environment = "prod"
	EnvironmentOther   Environment = "other"
)

const (
	DefaultNonProdMinAgeDays = 3
	DefaultProdMinAgeDays    = 7
)

// ClassifySubscription derives the environment from the subscription name.
// "nonprod" is checked first since it also contains "prod".
func ClassifySubscription(name string) Environment {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "nonprod"):
		return EnvironmentNonProd
	case strings.Contains(lower, "prod"):
		return EnvironmentProd
	default:
		return EnvironmentOther
	}
}

// RetentionPolicy holds the minimum age, in days, at which a snapshot becomes
// eligible for deletion.
type RetentionPolicy struct {
	NonProdMinAgeDays int
	ProdMinAgeDays    int
}

// DefaultRetentionPolicy returns the 3-day non-prod / 7-day prod policy.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		NonProdMinAgeDays: DefaultNonProdMinAgeDays,
		ProdMinAgeDays:    DefaultProdMinAgeDays,
	}
}

// Select annotates each snapshot's age against now and splits the eligible
// ones by environment. Snapshots outside prod and non-prod are never selected.
func (p RetentionPolicy) Select(snapshots []entity.Snapshot, now time.Time) (nonProd, prod []entity.Snapshot) {
	for _, s := range snapshots {
		s = s.WithAge(now)
		switch ClassifySubscription(s.SubscriptionName) {
		case EnvironmentNonProd:
			if s.AgeDays >= p.NonProdMinAgeDays {
				nonProd = append(nonProd, s)
			}
		case EnvironmentProd:
			if s.AgeDays >= p.ProdMinAgeDays {
				prod = append(prod, s)
			}
		}
	}
	return nonProd, prod
}
