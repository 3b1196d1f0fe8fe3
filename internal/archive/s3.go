package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const snapshotPrefix = "snapshots/"

// S3Config addresses an S3-compatible bucket such as Cloudflare R2.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// S3Archive stores snapshots as objects under snapshots/.
type S3Archive struct {
	client *s3.Client
	bucket string
}

func NewS3Archive(ctx context.Context, cfg S3Config) (*S3Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return &S3Archive{client: client, bucket: cfg.Bucket}, nil
}

func (a *S3Archive) Save(ctx context.Context, snap *Snapshot) (SnapshotInfo, error) {
	data, err := encode(snap)
	if err != nil {
		return SnapshotInfo{}, err
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(snapshotPrefix + objectName(snap)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"checksum": snap.Checksum},
	})
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return SnapshotInfo{
		ID:        snap.ID,
		CreatedAt: snap.CreatedAt,
		Checksum:  snap.Checksum,
		Size:      int64(len(data)),
	}, nil
}

func (a *S3Archive) List(ctx context.Context) ([]SnapshotInfo, error) {
	infos := make([]SnapshotInfo, 0)
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(snapshotPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			id, ok := idFromKey(aws.ToString(obj.Key))
			if !ok {
				continue
			}
			infos = append(infos, SnapshotInfo{
				ID:        id,
				CreatedAt: aws.ToTime(obj.LastModified).UTC(),
				Size:      aws.ToInt64(obj.Size),
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

func (a *S3Archive) Get(ctx context.Context, id string) (*Snapshot, error) {
	key, err := a.findKey(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return nil, fmt.Errorf("failed to download snapshot: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decode(data)
}

// findKey resolves an id to its dated object key.
func (a *S3Archive) findKey(ctx context.Context, id string) (string, error) {
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(snapshotPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if got, ok := idFromKey(key); ok && got == id {
				return key, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
}

func idFromKey(key string) (string, bool) {
	name := key[strings.LastIndexByte(key, '/')+1:]
	name, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return "", false
	}
	_, id, ok := strings.Cut(name, "_")
	return id, ok && id != ""
}
