package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// S3Config describes an S3-compatible object store endpoint, matching the
// DigitalOcean Spaces deployment of the original pipeline (region "fra1",
// endpoint "https://fra1.digitaloceanspaces.com", bucket "private-jets").
type S3Config struct {
	Bucket          string
	Region          string
	EndpointURL     string
	AccessKey       string
	SecretAccessKey string
}

// S3 is a Store backed by an S3-compatible object store. An empty
// AccessKey/SecretAccessKey pair builds an anonymous, read-only client:
// CanPut reports false, matching the "anonymous S3 client" case of the spec.
type S3 struct {
	client *s3.Client
	bucket string
	canPut bool
}

// NewS3 builds a Store for the given configuration. When access/secret keys
// are both empty, the returned Store is anonymous and CanPut() is false.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	optFns = append(optFns, awsconfig.WithRegion(cfg.Region))

	canPut := cfg.AccessKey != "" && cfg.SecretAccessKey != ""
	if canPut {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretAccessKey, ""),
		))
	} else {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
	})

	return &S3{client: client, bucket: cfg.Bucket, canPut: canPut}, nil
}

func (s *S3) MaybeGet(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var respErr *smithyhttp.ResponseError
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("s3 read body %s: %w", key, err)
	}
	return data, true, nil
}

func (s *S3) Put(ctx context.Context, key string, contents []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(contents),
		ContentType: aws.String(ContentType(key)),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

func (s *S3) CanPut() bool { return s.canPut }

// IsUnauthorized reports whether err represents an authorization failure on
// write, the trigger for the Content Cache's local-disk fall-back.
func IsUnauthorized(err error) bool {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code == 401 || code == 403
	}
	return false
}
