package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/profilekeeper/internal/client/config"
	"github.com/dmitrijs2005/profilekeeper/internal/client/storage"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/google/uuid"
)

var ErrBackupDisabled = errors.New("backup is not configured")

// ObjectPutter is the part of *s3.Client the backup needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Snapshot is the document uploaded by BackupService.
type Snapshot struct {
	Created time.Time         `json:"created"`
	Entries map[string]string `json:"entries"`
}

// BackupService uploads the whole local store to an S3-compatible bucket.
type BackupService struct {
	kv     storage.Storage
	config *config.Config
	logger logging.Logger
	client ObjectPutter
	now    func() time.Time
}

func NewBackupService(kv storage.Storage, cfg *config.Config, logger logging.Logger) *BackupService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &BackupService{kv: kv, config: cfg, logger: logger, now: time.Now}
}

func (b *BackupService) Enabled() bool {
	return b.config != nil && b.config.S3Bucket != ""
}

func (b *BackupService) getClient(ctx context.Context) (ObjectPutter, error) {
	if b.client != nil {
		return b.client, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(b.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			b.config.S3AccessKey,
			b.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	b.client = newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if b.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(b.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return b.client, nil
}

func (b *BackupService) objectKey(now time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%02d/%s.json",
		b.config.S3Prefix, now.Year(), now.Month(), now.Day(), uuid.NewString())
}

// Upload stores a snapshot of every key and returns the object key.
func (b *BackupService) Upload(ctx context.Context) (string, error) {
	if !b.Enabled() {
		return "", ErrBackupDisabled
	}
	if b.config.BackupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.BackupTimeout)
		defer cancel()
	}

	entries, err := b.kv.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read store: %w", err)
	}

	now := b.now().UTC()
	snap := Snapshot{Created: now, Entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		if k == common.UsersStorageKey {
			if v, err = redactDirectory(v); err != nil {
				return "", err
			}
		}
		snap.Entries[k] = string(v)
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	client, err := b.getClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client error: %w", err)
	}

	key := b.objectKey(now)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		b.logger.Warn(ctx, "backup upload failed", "bucket", b.config.S3Bucket, "error", err)
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	b.logger.Info(ctx, "backup uploaded", "bucket", b.config.S3Bucket, "key", key, "entries", len(entries))
	return key, nil
}

// redactDirectory drops the stored credential from every directory record;
// snapshots never leave the machine with passwords or hashes in them.
func redactDirectory(raw []byte) ([]byte, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode directory: %w", err)
	}
	for _, r := range records {
		delete(r, "password")
	}
	out, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode directory: %w", err)
	}
	return out, nil
}
