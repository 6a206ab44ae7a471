package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
)

const defaultContainer = "snapshot-reports"

// BlobRepositoryImpl envia relatórios para um container do Azure Blob Storage.
type BlobRepositoryImpl struct {
	client     *azblob.Client
	serviceURL string
	container  string
}

// NewBlobRepository cria o uploader usando a DefaultAzureCredential.
func NewBlobRepository(serviceURL, container string) (repository.UploadRepository, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load Azure credentials: %w", err)
	}
	return NewBlobRepositoryWithCredential(serviceURL, container, cred)
}

// NewBlobRepositoryWithCredential cria o uploader com uma credencial explícita.
func NewBlobRepositoryWithCredential(serviceURL, container string, cred azcore.TokenCredential) (*BlobRepositoryImpl, error) {
	if serviceURL == "" {
		return nil, fmt.Errorf("storage service URL is required")
	}
	if container == "" {
		container = defaultContainer
	}

	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating blob client: %w", err)
	}

	return &BlobRepositoryImpl{
		client:     client,
		serviceURL: strings.TrimSuffix(serviceURL, "/"),
		container:  container,
	}, nil
}

// Upload envia o arquivo local e retorna a URL do blob.
func (r *BlobRepositoryImpl) Upload(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("error opening %s: %w", localPath, err)
	}
	defer file.Close()

	blobName := filepath.Base(localPath)
	if _, err := r.client.UploadFile(ctx, r.container, blobName, file, nil); err != nil {
		return "", fmt.Errorf("error uploading %s: %w", blobName, err)
	}

	return BlobURL(r.serviceURL, r.container, blobName), nil
}

// BlobURL joins the service URL, container and blob name.
func BlobURL(serviceURL, container, blobName string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(serviceURL, "/"), container, blobName)
}
