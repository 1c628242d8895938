package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// S3Sink writes one object per event to an S3 bucket, keyed by shipment
// and event ID.
type S3Sink struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Sink creates an S3 journal sink. Credentials may be empty when
// the environment provides them (instance profile, env vars).
func NewS3Sink(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Sink, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Sink{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      prefix,
		log:         log,
		locationURI: uri,
	}, nil
}

// Append stores one event object.
func (s *S3Sink) Append(ctx context.Context, ev interfaces.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	key := path.Join(s.prefix, ev.Shipment.String(), ev.ID+".json")
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to store event in S3: %w", err)
	}

	s.log.Debug("Appended event to S3 journal",
		slog.String("bucket", s.bucketName),
		slog.String("key", key))
	return nil
}

// Name returns the sink identifier.
func (s *S3Sink) Name() string { return "s3" }

// Available reports whether the bucket answers a HEAD request.
func (s *S3Sink) Available(ctx context.Context) bool {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	return err == nil
}

// LocationURI returns the URI the sink was created from.
func (s *S3Sink) LocationURI() string { return s.locationURI }
