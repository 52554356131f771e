package upload

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store stores uploads in an S3 bucket.
//
// Example usage:
//
//	client := upload.NewS3Client(upload.S3Config{Region: "ap-south-1", ...})
//	store := upload.NewS3Store(client, "gallery", "providers/", 5<<20).
//	    WithPublicBaseURL("https://cdn.example.com")
type S3Store struct {
	client    S3API
	presign   *s3.PresignClient
	bucket    string
	prefix    string
	maxSize   int64
	publicURL string
	urlExpiry time.Duration
}

// NewS3Store creates a new S3 upload store.
//
// Parameters:
//   - client: S3 client (or any S3API)
//   - bucket: S3 bucket name
//   - prefix: key prefix for uploads (e.g., "gallery/")
//   - maxSize: maximum file size in bytes (0 = no limit)
//
// Without WithPublicBaseURL, Upload returns a presigned GET URL that
// expires after the URL expiry (default 7 days). Do not store such URLs
// anywhere they must stay valid, such as a gallery.
func NewS3Store(client S3API, bucket, prefix string, maxSize int64) *S3Store {
	s := &S3Store{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		maxSize:   maxSize,
		urlExpiry: 7 * 24 * time.Hour,
	}
	if c, ok := client.(*s3.Client); ok {
		s.presign = s3.NewPresignClient(c)
	}
	return s
}

// WithPublicBaseURL makes Upload return baseURL + "/" + key instead of a
// presigned URL.
func (s *S3Store) WithPublicBaseURL(baseURL string) *S3Store {
	s.publicURL = strings.TrimRight(baseURL, "/")
	return s
}

// WithURLExpiry sets how long presigned URLs are valid.
func (s *S3Store) WithURLExpiry(d time.Duration) *S3Store {
	s.urlExpiry = d
	return s
}

// Upload puts the file under prefix with a random name.
func (s *S3Store) Upload(ctx context.Context, f *File) (string, error) {
	key := s.prefix + objectName(f.Filename)
	op := http.MethodPut + " s3://" + s.bucket + "/" + key
	if err := rewind(op, f); err != nil {
		return "", err
	}

	content, err := readLimited(op, f.Reader, s.maxSize)
	if err != nil {
		return "", err
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(content))),
		Metadata: map[string]string{
			"original-filename": f.Filename,
			"upload-time":       time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", classifyS3(op, err)
	}

	if s.publicURL != "" || s.presign == nil {
		return s.objectURL(key), nil
	}
	presigned, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlExpiry))
	if err != nil {
		return "", dasherrors.New(dasherrors.KindMalformed, op).WithDetail("presign").Wrap(err)
	}
	return presigned.URL, nil
}

func (s *S3Store) objectURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return "https://" + s.bucket + ".s3.amazonaws.com/" + key
}

func classifyS3(op string, err error) error {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return dasherrors.FromStatus(op, re.HTTPStatusCode()).Wrap(err)
	}
	return dasherrors.FromTransport(op, err)
}

// S3Config describes how to reach the bucket.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the service endpoint (MinIO, R2, ...).
	Endpoint string
	// PathStyle forces path-style addressing.
	PathStyle bool
}

// NewS3Client builds an S3 client with static credentials.
func NewS3Client(cfg S3Config) *s3.Client {
	creds := aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "dashkit",
		}, nil
	}))
	return s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  creds,
		BaseEndpoint: endpointOrNil(cfg.Endpoint),
		UsePathStyle: cfg.PathStyle,
	})
}

func endpointOrNil(endpoint string) *string {
	if endpoint == "" {
		return nil
	}
	return aws.String(endpoint)
}
