package types

import "errors"

var (
	ErrNoSubscriptionsFound      = errors.New("no Azure subscriptions found. Please make sure you're logged in with 'az login'")
	ErrNoValidSubscriptionsFound = errors.New("none of the specified subscriptions were found")
	ErrAzureCLINotFound          = errors.New("azure CLI 'az' not found in PATH")
	ErrUnsupportedBackend        = errors.New("unsupported backend, expected 'cli' or 'sdk'")
	ErrDeletionIncomplete        = errors.New("some snapshots could not be deleted or some locks could not be restored")
)
