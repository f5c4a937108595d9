package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"

	"github.com/yanote/notes/backend/go-services/internal/config"
)

func TestNewMinIOStorage_NotConfigured(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), config.MinIOConfig{})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestGetPresignedURL_Offline(t *testing.T) {
	// presigning is computed locally; only bucket creation needs a server
	mc, err := newClientForTest("play.example.com:9000")
	require.NoError(t, err)
	s := &MinIOStorage{client: mc, bucket: "notes-export"}

	u, err := s.GetPresignedURL(context.Background(), "notes/u1/hello.md", time.Minute)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, "http://play.example.com:9000/notes-export/notes/u1/hello.md?"))
	require.Contains(t, u, "X-Amz-Expires=60")
}

func newClientForTest(endpoint string) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
}
