package images

import (
	"bytes"
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store keeps menu background images in S3 so large uploads don't have to
// travel inline with every draft save.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func NewStore(ctx context.Context, bucket, region string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}, nil
}

// Put stores the image bytes under a fresh key scoped to the user and
// returns the key.
func (s *Store) Put(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("menus/%s/%s.png", userID, uuid.New().String())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return key, nil
}

// PresignGet returns a time-limited URL for a stored image.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign image url: %w", err)
	}
	return req.URL, nil
}
