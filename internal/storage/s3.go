package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docvault/internal/config"
)

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// S3Store implements BlobStore against AWS S3 or an S3-compatible endpoint.
// Uploads go through a short-lived presigned PUT target.
type S3Store struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	httpClient *http.Client
	bucket     string
	region     string
	endpoint   string
	publicURL  string
	expiry     time.Duration
	session    *Session
	versioned  atomic.Bool
}

var _ BlobStore = (*S3Store)(nil)

// NewS3 loads the AWS configuration and builds the client. Static keys take precedence
// over the default credential chain. A custom endpoint switches to path-style addressing.
func NewS3(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	return newS3Store(client, httpClient, cfg), nil
}

func newS3Store(client *s3.Client, httpClient *http.Client, cfg config.S3Config) *S3Store {
	expiry := cfg.UploadURLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	s := &S3Store{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		httpClient: httpClient,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		endpoint:   cfg.Endpoint,
		publicURL:  cfg.PublicURL,
		expiry:     expiry,
	}
	s.session = NewSession(s.handshake)
	return s
}

func (s *S3Store) handshake(ctx context.Context) (string, error) {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return "", fmt.Errorf("head bucket: %w", err)
	}

	if out, err := s.client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: aws.String(s.bucket)}); err == nil {
		s.versioned.Store(out.Status == types.BucketVersioningStatusEnabled)
	}

	switch {
	case s.publicURL != "":
		return s.publicURL, nil
	case s.endpoint != "":
		return s.endpoint, nil
	default:
		return fmt.Sprintf("https://s3.%s.amazonaws.com", s.region), nil
	}
}

func (s *S3Store) Authorize(ctx context.Context) error {
	return s.session.Authorize(ctx)
}

// Upload obtains a presigned PUT target for key and transmits the payload to it.
func (s *S3Store) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error) {
	if err := s.Authorize(ctx); err != nil {
		return Object{}, err
	}

	target, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return Object{}, fmt.Errorf("%w: presign: %w", ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, target.Method, target.URL, r)
	if err != nil {
		return Object{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	for name, values := range target.SignedHeader {
		if strings.EqualFold(name, "Host") || strings.EqualFold(name, "Content-Length") {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = size

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Object{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusForbidden {
			s.session.Invalidate()
		}
		return Object{}, fmt.Errorf("%w: provider responded %d", ErrUpload, resp.StatusCode)
	}

	id := resp.Header.Get("x-amz-version-id")
	if id == "" {
		id = strings.Trim(resp.Header.Get("ETag"), `"`)
	}
	return Object{ID: id, Name: key}, nil
}

func (s *S3Store) DownloadURL(objectName string) (string, error) {
	base, ok := s.session.BaseURL()
	if !ok {
		return "", ErrNotAuthorized
	}
	return objectURL(base, s.bucket, objectName)
}

// Delete removes objectName, addressing objectID as the version on versioned buckets.
func (s *S3Store) Delete(ctx context.Context, objectID, objectName string) error {
	if err := s.Authorize(ctx); err != nil {
		return err
	}

	in := &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectName),
	}
	if s.versioned.Load() && objectID != "" {
		in.VersionId = aws.String(objectID)
	}

	_, err := s.client.DeleteObject(ctx, in)
	if err == nil || isS3Missing(err) {
		return nil
	}
	if isS3AuthError(err) {
		s.session.Invalidate()
	}
	return fmt.Errorf("%w: %w", ErrDelete, err)
}

func isS3Missing(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchVersion", "NotFound":
			return true
		case "NoSuchBucket":
			return false
		}
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

func isS3AuthError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "Forbidden":
			return true
		}
	}
	return false
}
