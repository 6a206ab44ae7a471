package azure

import (
	"fmt"
	"strings"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/shared/types"
)

const (
	BackendCLI = "cli"
	BackendSDK = "sdk"
)

// NewCloudRepository cria o CloudRepository para o backend escolhido.
func NewCloudRepository(backend string) (repository.CloudRepository, error) {
	switch strings.ToLower(backend) {
	case "", BackendCLI:
		return NewCLIRepository(ExecRunner{}), nil
	case BackendSDK:
		return NewDefaultSDKRepository()
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedBackend, backend)
	}
}
