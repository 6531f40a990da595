package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/internal/config"
)

func TestNewObjectStoreParsesEndpoint(t *testing.T) {
	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:        "https://minio.example.com:9000",
		AccessKey:       "key",
		SecretKey:       "secret",
		BucketSnapshots: "snaps",
		Region:          "us-east-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "snaps", store.Bucket())
	assert.Equal(t, "minio.example.com:9000", store.client.EndpointURL().Host)
	assert.Equal(t, "https", store.client.EndpointURL().Scheme)
}

func TestObjectStoreRoundTrip(t *testing.T) {
	endpoint := os.Getenv("COURSEMARKET_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("COURSEMARKET_TEST_MINIO_ENDPOINT not set")
	}

	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:        endpoint,
		AccessKey:       os.Getenv("COURSEMARKET_TEST_MINIO_ACCESS_KEY"),
		SecretKey:       os.Getenv("COURSEMARKET_TEST_MINIO_SECRET_KEY"),
		BucketSnapshots: "coursemarket-test",
		Region:          "us-east-1",
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.EnsureBucket(ctx))
	require.NoError(t, store.PutObject(ctx, "test/hello.json", []byte(`[]`), "application/json"))

	data, err := store.GetObject(ctx, "test/hello.json")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}
