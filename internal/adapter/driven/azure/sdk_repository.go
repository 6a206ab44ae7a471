package azure

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v6"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armlocks"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
)

// ErrNoActiveSubscription is returned by lock operations issued before any
// subscription was made active.
var ErrNoActiveSubscription = errors.New("no active subscription")

// SDKRepositoryImpl implementa o CloudRepository com o Azure SDK, com cache de clientes.
type SDKRepositoryImpl struct {
	cred        azcore.TokenCredential
	opts        *arm.ClientOptions
	active      string
	clientCache map[string]interface{}
	mu          sync.Mutex
}

// NewSDKRepository cria um CloudRepository usando a credencial informada.
func NewSDKRepository(cred azcore.TokenCredential, opts *arm.ClientOptions) repository.CloudRepository {
	return &SDKRepositoryImpl{
		cred:        cred,
		opts:        opts,
		clientCache: make(map[string]interface{}),
	}
}

// NewDefaultSDKRepository usa a DefaultAzureCredential (variáveis de ambiente,
// managed identity ou sessão do az CLI).
func NewDefaultSDKRepository() (repository.CloudRepository, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load Azure credentials: %w", err)
	}
	return NewSDKRepository(cred, nil), nil
}

// EndpointClientOptions points ARM clients at a custom Resource Manager
// endpoint, such as a local simulator.
func EndpointClientOptions(endpointURL string) *arm.ClientOptions {
	return &arm.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Cloud: cloud.Configuration{
				Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
					cloud.ResourceManager: {
						Endpoint: endpointURL,
						Audience: "https://management.azure.com/",
					},
				},
			},
			InsecureAllowCredentialWithHTTP: true,
		},
	}
}

func (r *SDKRepositoryImpl) getServiceClient(subscriptionID, service string) (interface{}, error) {
	cacheKey := fmt.Sprintf("%s-%s", subscriptionID, service)

	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clientCache[cacheKey]; ok {
		return client, nil
	}

	var (
		client interface{}
		err    error
	)
	switch service {
	case "subscriptions":
		client, err = armsubscriptions.NewClient(r.cred, r.opts)
	case "snapshots":
		client, err = armcompute.NewSnapshotsClient(subscriptionID, r.cred, r.opts)
	case "locks":
		client, err = armlocks.NewManagementLocksClient(subscriptionID, r.cred, r.opts)
	default:
		return nil, fmt.Errorf("unsupported service: %s", service)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", service, err)
	}

	r.clientCache[cacheKey] = client
	return client, nil
}

func (r *SDKRepositoryImpl) activeSubscription() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == "" {
		return "", ErrNoActiveSubscription
	}
	return r.active, nil
}

func (r *SDKRepositoryImpl) ListSubscriptions(ctx context.Context) ([]entity.Subscription, error) {
	client, err := r.getServiceClient("", "subscriptions")
	if err != nil {
		return nil, err
	}
	subsClient := client.(*armsubscriptions.Client)

	var result []entity.Subscription
	pager := subsClient.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing subscriptions: %w", err)
		}
		for _, s := range page.Value {
			if s == nil || s.SubscriptionID == nil {
				continue
			}
			result = append(result, entity.Subscription{ID: *s.SubscriptionID, Name: deref(s.DisplayName)})
		}
	}
	return result, nil
}

// SetActiveSubscription confirma que a subscription é acessível antes de torná-la ativa.
func (r *SDKRepositoryImpl) SetActiveSubscription(ctx context.Context, subscriptionID string) error {
	client, err := r.getServiceClient("", "subscriptions")
	if err != nil {
		return err
	}
	subsClient := client.(*armsubscriptions.Client)

	if _, err := subsClient.Get(ctx, subscriptionID, nil); err != nil {
		return fmt.Errorf("error selecting subscription %s: %w", subscriptionID, err)
	}

	r.mu.Lock()
	r.active = subscriptionID
	r.mu.Unlock()
	return nil
}

func (r *SDKRepositoryImpl) ListSnapshots(ctx context.Context, subscriptionID string, timeRange entity.TimeRange, keyword string) ([]entity.Snapshot, error) {
	client, err := r.getServiceClient(subscriptionID, "snapshots")
	if err != nil {
		return nil, err
	}
	snapClient := client.(*armcompute.SnapshotsClient)

	var snapshots []entity.Snapshot
	pager := snapClient.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing snapshots for subscription %s: %w", subscriptionID, err)
		}
		for _, s := range page.Value {
			snap, ok := toSnapshot(s, subscriptionID)
			if !ok || !timeRange.Contains(snap.TimeCreated) || !entity.MatchesKeyword(snap.Name, keyword) {
				continue
			}
			snapshots = append(snapshots, snap)
		}
	}
	return snapshots, nil
}

func toSnapshot(s *armcompute.Snapshot, subscriptionID string) (entity.Snapshot, bool) {
	if s == nil || s.ID == nil || s.Name == nil || s.Properties == nil || s.Properties.TimeCreated == nil {
		return entity.Snapshot{}, false
	}
	rid, err := arm.ParseResourceID(*s.ID)
	if err != nil {
		return entity.Snapshot{}, false
	}

	snap := entity.Snapshot{
		ID:             *s.ID,
		Name:           *s.Name,
		ResourceGroup:  rid.ResourceGroupName,
		SubscriptionID: subscriptionID,
		TimeCreated:    s.Properties.TimeCreated.UTC(),
	}
	if s.Properties.DiskState != nil {
		snap.DiskState = string(*s.Properties.DiskState)
	}
	if createdBy, ok := s.Tags["CreatedByUserId"]; ok {
		snap.CreatedBy = deref(createdBy)
	}
	return snap, true
}

// DeleteSnapshot apaga o snapshot e aguarda a conclusão da operação longa.
func (r *SDKRepositoryImpl) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	rid, err := arm.ParseResourceID(snapshotID)
	if err != nil {
		return fmt.Errorf("invalid snapshot id %q: %w", snapshotID, err)
	}

	client, err := r.getServiceClient(rid.SubscriptionID, "snapshots")
	if err != nil {
		return err
	}
	snapClient := client.(*armcompute.SnapshotsClient)

	poller, err := snapClient.BeginDelete(ctx, rid.ResourceGroupName, rid.Name, nil)
	if err != nil {
		return fmt.Errorf("error deleting snapshot %s: %w", rid.Name, markScopeLocked(err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("error waiting for deletion of snapshot %s: %w", rid.Name, markScopeLocked(err))
	}
	return nil
}

func (r *SDKRepositoryImpl) locksClient() (*armlocks.ManagementLocksClient, error) {
	subscriptionID, err := r.activeSubscription()
	if err != nil {
		return nil, err
	}
	client, err := r.getServiceClient(subscriptionID, "locks")
	if err != nil {
		return nil, err
	}
	return client.(*armlocks.ManagementLocksClient), nil
}

// ListLocks retorna apenas os locks definidos no escopo do resource group.
func (r *SDKRepositoryImpl) ListLocks(ctx context.Context, resourceGroup string, level entity.LockLevel) ([]entity.Lock, error) {
	client, err := r.locksClient()
	if err != nil {
		return nil, err
	}

	var locks []entity.Lock
	pager := client.NewListAtResourceGroupLevelPager(resourceGroup, &armlocks.ManagementLocksClientListAtResourceGroupLevelOptions{
		Filter: to.Ptr("atScope()"),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing locks for resource group %s: %w", resourceGroup, err)
		}
		for _, l := range page.Value {
			if l == nil || l.ID == nil || l.Name == nil || l.Properties == nil || l.Properties.Level == nil {
				continue
			}
			if entity.LockLevel(*l.Properties.Level) != level || !IsResourceGroupScoped(*l.ID, resourceGroup) {
				continue
			}
			locks = append(locks, entity.Lock{
				ID:            *l.ID,
				Name:          *l.Name,
				ResourceGroup: resourceGroup,
				Level:         level,
				Notes:         deref(l.Properties.Notes),
			})
		}
	}
	return locks, nil
}

func (r *SDKRepositoryImpl) DeleteLock(ctx context.Context, lockID string) error {
	client, err := r.locksClient()
	if err != nil {
		return err
	}
	if _, err := client.DeleteByID(ctx, lockID, nil); err != nil {
		return fmt.Errorf("error deleting lock %s: %w", lockID, err)
	}
	return nil
}

func (r *SDKRepositoryImpl) CreateLock(ctx context.Context, lock entity.Lock) error {
	client, err := r.locksClient()
	if err != nil {
		return err
	}

	level := lock.Level
	if level == "" {
		level = entity.LockLevelCanNotDelete
	}
	props := &armlocks.ManagementLockProperties{Level: to.Ptr(armlocks.LockLevel(level))}
	if lock.Notes != "" {
		props.Notes = to.Ptr(lock.Notes)
	}

	_, err = client.CreateOrUpdateAtResourceGroupLevel(ctx, lock.ResourceGroup, lock.Name, armlocks.ManagementLockObject{Properties: props}, nil)
	if err != nil {
		return fmt.Errorf("error creating lock %s on resource group %s: %w", lock.Name, lock.ResourceGroup, err)
	}
	return nil
}
