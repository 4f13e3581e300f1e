package blobdest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitbackup/internal/storage/blobdest"
)

const (
	// Well-known Azurite development credential, safe to embed in tests.
	testConnectionStringConstant = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"
	testContainerNameConstant = "backups"
)

func TestNewStoreValidatesConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name             string
		connectionString string
		containerName    string
		expectedError    error
	}{
		{
			name:             "missing_connection_string",
			connectionString: "",
			containerName:    testContainerNameConstant,
			expectedError:    blobdest.ErrConnectionStringNotConfigured,
		},
		{
			name:             "missing_container",
			connectionString: testConnectionStringConstant,
			containerName:    "",
			expectedError:    blobdest.ErrContainerNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			store, creationError := blobdest.NewStore(testCase.connectionString, testCase.containerName)
			require.Nil(testInstance, store)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestStoreName(testInstance *testing.T) {
	store, creationError := blobdest.NewStore(testConnectionStringConstant, testContainerNameConstant)
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, "azure-blob", store.Name())
}
