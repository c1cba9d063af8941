package bootstrap

import (
	"context"
	"testing"

	"github.com/jorgecardleitao/private-jets-go/internal/config"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

func TestYearRange(t *testing.T) {
	got := YearRange(2020, 0, 2023)
	want := []int{2020, 2021, 2022, 2023}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestOpenCacheLocal(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Type: "local", LocalRoot: t.TempDir()},
	}
	c, err := OpenCache(context.Background(), cfg, Credentials{}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if c == nil {
		t.Fatal("expected non-nil cache")
	}
}

func TestOpenCacheS3RequiresBothCredentials(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Type: "s3", S3Bucket: "b", S3Region: "fra1"},
	}
	_, err := OpenCache(context.Background(), cfg, Credentials{AccessKey: "only-access"}, logger.Nop())
	if err == nil {
		t.Fatal("expected error when only one of access/secret key is set")
	}
}
