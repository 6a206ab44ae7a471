package usecase

import (
	"context"
	"sync"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
)

// SubscriptionContext is the single mutator of the control plane's active
// subscription. Switches are serialized and skipped when the requested
// subscription is already active.
type SubscriptionContext struct {
	cloud   repository.CloudRepository
	mu      sync.Mutex
	current string
}

// NewSubscriptionContext creates a context with no active subscription.
func NewSubscriptionContext(cloud repository.CloudRepository) *SubscriptionContext {
	return &SubscriptionContext{cloud: cloud}
}

// Switch makes subscriptionID the active subscription. On failure the active
// subscription is unknown and the next Switch always calls the control plane.
func (sc *SubscriptionContext) Switch(ctx context.Context, subscriptionID string) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.current == subscriptionID && sc.current != "" {
		return nil
	}

	if err := sc.cloud.SetActiveSubscription(ctx, subscriptionID); err != nil {
		sc.current = ""
		return err
	}
	sc.current = subscriptionID
	return nil
}

// Current returns the active subscription id, or "" when unknown.
func (sc *SubscriptionContext) Current() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.current
}
