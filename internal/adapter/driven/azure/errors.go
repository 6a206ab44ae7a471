package azure

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
)

// IsNotFound reports whether err indicates the target resource does not exist,
// for both SDK response errors and az CLI failures.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusNotFound
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		stderr := strings.ToLower(cmdErr.Stderr)
		return strings.Contains(stderr, "resourcenotfound") || strings.Contains(stderr, "was not found")
	}
	return false
}

// IsScopeLocked reports whether err was caused by a management lock on the scope.
func IsScopeLocked(err error) bool {
	if err == nil {
		return false
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.ErrorCode == "ScopeLocked"
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return strings.Contains(cmdErr.Stderr, "ScopeLocked")
	}
	return false
}

// markScopeLocked tags a ScopeLocked delete failure with entity.ErrScopeLocked.
func markScopeLocked(err error) error {
	if IsScopeLocked(err) && !errors.Is(err, entity.ErrScopeLocked) {
		return fmt.Errorf("%w: %w", entity.ErrScopeLocked, err)
	}
	return err
}

// IsResourceGroupScoped reports whether lockID names a lock defined directly on
// resourceGroup rather than on a resource inside it.
func IsResourceGroupScoped(lockID, resourceGroup string) bool {
	lower := strings.ToLower(lockID)
	marker := "/resourcegroups/" + strings.ToLower(resourceGroup) + "/providers/microsoft.authorization/locks/"
	i := strings.Index(lower, marker)
	if i < 0 {
		return false
	}
	return !strings.Contains(lower[i+len(marker):], "/")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
