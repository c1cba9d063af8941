// Package bootstrap wires the Blob Store Interface and Content Cache from
// configuration, shared by every cmd/ binary so each driver's main.go stays
// focused on its own orchestration rather than re-deriving backend selection.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jorgecardleitao/private-jets-go/internal/blob"
	"github.com/jorgecardleitao/private-jets-go/internal/cache"
	"github.com/jorgecardleitao/private-jets-go/internal/config"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

// Credentials carries the CLI-supplied --access-key/--secret-access-key
// pair, overriding whatever is set in the TOML configuration.
type Credentials struct {
	AccessKey       string
	SecretAccessKey string
}

// OpenCache builds the primary blob.Store from cfg.Storage (local disk or
// S3-compatible), overlays CLI credentials when given, and wraps it in a
// Content Cache with a LocalDisk fall-back tier. When storage is already
// local, the fall-back is nil: a LocalDisk primary never needs one.
func OpenCache(ctx context.Context, cfg *config.Config, creds Credentials, log *logger.Logger) (*cache.Cache, error) {
	switch cfg.Storage.Type {
	case "local":
		primary := blob.NewLocalDisk(cfg.Storage.LocalRoot)
		return cache.New(primary, nil, log), nil

	case "s3":
		accessKey := creds.AccessKey
		secretKey := creds.SecretAccessKey
		if accessKey == "" {
			accessKey = cfg.Storage.S3AccessKeyID
		}
		if secretKey == "" {
			secretKey = cfg.Storage.S3SecretAccessKey
		}
		if (accessKey == "") != (secretKey == "") {
			return nil, fmt.Errorf("bootstrap: --access-key and --secret-access-key must both be set or both be empty")
		}

		primary, err := blob.NewS3(ctx, blob.S3Config{
			Bucket:          cfg.Storage.S3Bucket,
			Region:          cfg.Storage.S3Region,
			EndpointURL:     cfg.Storage.S3Endpoint,
			AccessKey:       accessKey,
			SecretAccessKey: secretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: opening S3 store: %w", err)
		}

		fallbackRoot := cfg.Storage.LocalRoot
		if fallbackRoot == "" {
			fallbackRoot = ".private-jets-cache"
		}
		fallback := blob.NewLocalDisk(fallbackRoot)
		return cache.New(primary, fallback, log), nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown storage type %q", cfg.Storage.Type)
	}
}

// YearRange expands cfg.ETL.FirstYear..LastYear into a slice of years. A
// LastYear of 0 means "through the current year", resolved by the caller
// passing currentYear explicitly so the function stays deterministic.
func YearRange(firstYear, lastYear, currentYear int) []int {
	if lastYear <= 0 {
		lastYear = currentYear
	}
	var years []int
	for y := firstYear; y <= lastYear; y++ {
		years = append(years, y)
	}
	return years
}
