package cdn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/xid"
)

// S3Config configures an S3-compatible bucket (AWS, MinIO, R2).
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL is the base the object key is appended to, e.g.
	// "https://cdn.example.com" or "http://localhost:9000/listings".
	PublicURL string
	Folder    string
}

// objectPutter is the part of *s3.Client the uploader calls.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores images as public objects keyed "<folder>/<xid>".
type S3 struct {
	client objectPutter
	cfg    S3Config
	now    func() time.Time
}

// NewS3 builds the client from static credentials when given, falling back
// to the default AWS credential chain otherwise.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" || cfg.PublicURL == "" {
		return nil, errors.New("cdn: S3 bucket and public URL are required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cdn: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3(client, cfg), nil
}

func newS3(client objectPutter, cfg S3Config) *S3 {
	return &S3{client: client, cfg: cfg, now: time.Now}
}

// Upload puts the object and derives the public URL from the key.
// Context and tags ride along as object metadata.
func (u *S3) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Image) == 0 {
		return nil, uploadFailed(errors.New("s3: empty image"))
	}
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	key := xid.New().String()
	if u.cfg.Folder != "" {
		key = u.cfg.Folder + "/" + key
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(req.Image),
		ContentType: aws.String(mediaType),
		Metadata: map[string]string{
			"context": BuildContext(req),
			"tags":    BuildTags(req),
		},
	})
	if err != nil {
		return nil, uploadFailed(fmt.Errorf("s3: put %s: %w", key, err))
	}

	return &UploadResult{
		SecureURL: strings.TrimRight(u.cfg.PublicURL, "/") + "/" + key,
		PublicID:  key,
		CreatedAt: u.now().UTC(),
	}, nil
}
