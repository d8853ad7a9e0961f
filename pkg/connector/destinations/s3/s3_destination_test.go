package s3

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/connector/registry"
)

func offlineStore(t *testing.T, raw string) *S3Store {
	t.Helper()
	loc, err := core.ParseLocation(raw)
	require.NoError(t, err)
	client := s3.NewFromConfig(aws.Config{Region: DefaultRegion})
	return newS3Store(client, loc, 0)
}

func TestURI(t *testing.T) {
	tests := []struct {
		root string
		key  string
		want string
	}{
		{"s3a://capstone/output", "port_dim/", "s3://capstone/output/port_dim/"},
		{"s3://capstone/output/", "fact/part-00000.csv", "s3://capstone/output/fact/part-00000.csv"},
		{"s3://capstone", "visa_dim/", "s3://capstone/visa_dim/"},
	}
	for _, tt := range tests {
		t.Run(tt.root, func(t *testing.T) {
			assert.Equal(t, tt.want, offlineStore(t, tt.root).URI(tt.key))
		})
	}
}

func TestBatches(t *testing.T) {
	keys := make([]string, 2500)
	got := batches(keys, maxDeleteBatch)
	require.Len(t, got, 3)
	assert.Len(t, got[0], 1000)
	assert.Len(t, got[2], 500)

	assert.Empty(t, batches(nil, maxDeleteBatch))
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, registry.Schemes(), "s3")
	assert.Contains(t, registry.Schemes(), "s3a")
}

func TestNewS3StoreStaticCredentials(t *testing.T) {
	loc, err := core.ParseLocation("s3://capstone/output")
	require.NoError(t, err)
	store, err := NewS3Store(context.Background(), loc, core.StoreConfig{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	creds, err := store.client.Options().Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
	assert.Equal(t, DefaultRegion, store.client.Options().Region)
}
