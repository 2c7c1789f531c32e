package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/weftlabs/weft/internal/util"
	"github.com/weftlabs/weft/pkg/logger"
)

const (
	downloadTries    = 3
	maxParallelFetch = 8
)

// S3IndexSyncer mirrors the graph index files of an S3 bucket prefix into a
// local directory, so the in-memory index can be built from local reads.
// It is useful when collections are produced elsewhere and published to
// S3-compatible storage like MinIO.
type S3IndexSyncer struct {
	bucket string
	client *s3.Client

	group singleflight.Group
}

// NewS3IndexSyncerParams defines the configuration parameters for creating
// a new S3IndexSyncer.
//
// Bucket specifies the S3 bucket name.
// Endpoint allows overriding the S3 endpoint (useful for S3-compatible
// storage like MinIO).
// Region specifies the AWS region.
// AccessKey and SecretKey provide static credentials.
type NewS3IndexSyncerParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3IndexSyncerWithClient creates a syncer using an existing s3.Client.
// This is useful if you want to reuse a preconfigured AWS client.
func NewS3IndexSyncerWithClient(bucket string, client *s3.Client) *S3IndexSyncer {
	return &S3IndexSyncer{
		bucket: bucket,
		client: client,
	}
}

// NewS3IndexSyncer creates a new S3IndexSyncer using the provided
// parameters. It initializes an AWS S3 client with static credentials and
// the given endpoint/region.
func NewS3IndexSyncer(ctx context.Context, params NewS3IndexSyncerParams) (*S3IndexSyncer, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	return &S3IndexSyncer{
		bucket: params.Bucket,
		client: s3.NewFromConfig(cfg),
	}, nil
}

// Sync downloads every object under prefix into localDir, preserving the
// relative key layout. Concurrent Sync calls for the same prefix are
// coalesced. Returns the number of objects written.
func (s *S3IndexSyncer) Sync(ctx context.Context, prefix string, localDir string) (int, error) {
	result, err, _ := s.group.Do(prefix+"\x00"+localDir, func() (any, error) {
		return s.syncPrefix(ctx, prefix, localDir)
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (s *S3IndexSyncer) syncPrefix(ctx context.Context, prefix string, localDir string) (int, error) {
	keys, err := s.listKeys(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list bucket %s: %w", s.bucket, err)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelFetch)
	for _, key := range keys {
		eg.Go(func() error {
			return s.downloadObject(egCtx, key, prefix, localDir)
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	logger.Info("[S3] sync complete", "bucket", s.bucket, "prefix", prefix, "objects", len(keys))
	return len(keys), nil
}

func (s *S3IndexSyncer) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || strings.HasSuffix(*obj.Key, "/") {
				continue
			}
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}

func (s *S3IndexSyncer) downloadObject(ctx context.Context, key string, prefix string, localDir string) error {
	rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
	if rel == "" || strings.Contains(rel, "..") {
		logger.Warn("[S3] skipping unsafe object key", "key", key)
		return nil
	}
	localPath := filepath.Join(localDir, filepath.FromSlash(rel))

	body, err := util.RetryWithContext(ctx, downloadTries, func(rCtx context.Context) ([]byte, error) {
		out, err := s.client.GetObject(rCtx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	})
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", localPath, err)
	}
	if err := os.WriteFile(localPath, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	return nil
}
