package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/openflag/internal/common"
	sc "github.com/dmitrijs2005/openflag/internal/server/config"
	"github.com/dmitrijs2005/openflag/internal/server/models"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// SnapshotURLValidity is how long the presigned download link stays valid.
const SnapshotURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Snapshot locates an exported flag set in object storage.
type Snapshot struct {
	Key string
	URL string
}

type snapshotFlag struct {
	Name        string    `json:"name"`
	Value       bool      `json:"value"`
	Description string    `json:"description"`
	UsageLog    []float64 `json:"usage_log"`
}

type snapshotDocument struct {
	TakenAt time.Time      `json:"taken_at"`
	Flags   []snapshotFlag `json:"flags"`
}

// SnapshotService exports the full flag set as a JSON document to an
// S3-compatible bucket.
type SnapshotService struct {
	flags  *FlagService
	config *sc.Config
	now    func() time.Time
}

func NewSnapshotService(flags *FlagService, config *sc.Config) *SnapshotService {
	return &SnapshotService{
		flags:  flags,
		config: config,
		now:    time.Now,
	}
}

func snapshotKey(d time.Time) string {
	return fmt.Sprintf("snapshots/%d/%02d/%02d/%v.json", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *SnapshotService) getClient(ctx context.Context) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.config.S3Region)}
	if s.config.S3RootUser != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			// MinIO and most self-hosted stores do not serve virtual-host buckets.
			o.UsePathStyle = true
		}
	}), nil
}

func encodeSnapshot(takenAt time.Time, flags []*models.Flag) ([]byte, error) {
	doc := snapshotDocument{TakenAt: takenAt.UTC(), Flags: make([]snapshotFlag, 0, len(flags))}
	for _, f := range flags {
		doc.Flags = append(doc.Flags, snapshotFlag{
			Name:        f.Name,
			Value:       f.Value,
			Description: f.Description,
			UsageLog:    f.UsageLog.Seconds(),
		})
	}
	return json.Marshal(doc)
}

// Export uploads the current flags and returns the object key together with
// a presigned GET URL. It fails with common.ErrorUnavailable when no bucket
// is configured.
func (s *SnapshotService) Export(ctx context.Context) (*Snapshot, error) {
	if !s.config.SnapshotsEnabled() {
		return nil, fmt.Errorf("snapshots are not configured: %w", common.ErrorUnavailable)
	}

	flags, err := s.flags.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	body, err := encodeSnapshot(now, flags)
	if err != nil {
		return nil, err
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := snapshotKey(now)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(SnapshotURLValidity))
	if err != nil {
		return nil, fmt.Errorf("presign snapshot: %w", err)
	}

	return &Snapshot{Key: key, URL: req.URL}, nil
}
