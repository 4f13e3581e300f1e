package s3dest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitbackup/internal/storage/s3dest"
)

const testBucketNameConstant = "backup-archive-bucket"

func TestNewStoreRequiresBucket(testInstance *testing.T) {
	store, creationError := s3dest.NewStore("")
	require.Nil(testInstance, store)
	require.ErrorIs(testInstance, creationError, s3dest.ErrBucketNotConfigured)
}

func TestStoreName(testInstance *testing.T) {
	store, creationError := s3dest.NewStore(testBucketNameConstant)
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, "aws-s3", store.Name())
}
