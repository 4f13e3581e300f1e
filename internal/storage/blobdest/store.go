// Package blobdest implements the Azure Blob Storage upload destination.
package blobdest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

const (
	destinationNameConstant                      = "azure-blob"
	connectionStringNotConfiguredMessageConstant = "azure storage connection string not configured"
	containerNotConfiguredMessageConstant        = "azure storage container not configured"
	clientCreationErrorTemplateConstant          = "unable to create azure blob client: %w"
	archiveOpenErrorTemplateConstant             = "unable to open archive %s: %w"
	uploadErrorTemplateConstant                  = "unable to upload %s to container %s: %w"
)

// Construction sentinels.
var (
	// ErrConnectionStringNotConfigured indicates a missing storage connection string.
	ErrConnectionStringNotConfigured = errors.New(connectionStringNotConfiguredMessageConstant)
	// ErrContainerNotConfigured indicates a missing container identifier.
	ErrContainerNotConfigured = errors.New(containerNotConfiguredMessageConstant)
)

// Store uploads archives to one Azure Blob Storage container.
type Store struct {
	client        *azblob.Client
	containerName string
}

// NewStore constructs the destination from a storage connection string.
func NewStore(connectionString string, containerName string) (*Store, error) {
	if len(connectionString) == 0 {
		return nil, ErrConnectionStringNotConfigured
	}
	if len(containerName) == 0 {
		return nil, ErrContainerNotConfigured
	}

	blobClient, clientError := azblob.NewClientFromConnectionString(connectionString, nil)
	if clientError != nil {
		return nil, fmt.Errorf(clientCreationErrorTemplateConstant, clientError)
	}

	return &Store{client: blobClient, containerName: containerName}, nil
}

// Name identifies the destination in logs and notifications.
func (store *Store) Name() string {
	return destinationNameConstant
}

// Upload streams the local archive to the container under the remote path.
func (store *Store) Upload(executionContext context.Context, localArchivePath string, remoteArchivePath string) error {
	archiveFile, openError := os.Open(localArchivePath)
	if openError != nil {
		return fmt.Errorf(archiveOpenErrorTemplateConstant, localArchivePath, openError)
	}
	defer archiveFile.Close()

	_, uploadError := store.client.UploadFile(executionContext, store.containerName, remoteArchivePath, archiveFile, nil)
	if uploadError != nil {
		return fmt.Errorf(uploadErrorTemplateConstant, remoteArchivePath, store.containerName, uploadError)
	}

	return nil
}
