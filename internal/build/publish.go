package build

import (
	"context"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/myvite-dev/myvite/internal/config"
	"github.com/myvite-dev/myvite/internal/errors"
)

// ObjectPutter is the subset of the S3 client the publisher uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads a build output directory to S3.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *slog.Logger
}

// NewPublisher creates a publisher for cfg. Credentials come from
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY when both are set.
func NewPublisher(cfg config.PublishConfig, logger *slog.Logger) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("E410").WithDetail("build.publish.bucket is not set")
	}
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		return nil, errors.New("E410").
			WithDetail("no AWS region configured").
			WithSuggestion("Set build.publish.region or AWS_REGION")
	}

	awsConfig := aws.Config{Region: region}
	if id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		awsConfig.Credentials = credentials.NewStaticCredentialsProvider(id, secret, os.Getenv("AWS_SESSION_TOKEN"))
	}

	return NewPublisherWithClient(s3.NewFromConfig(awsConfig), cfg.Bucket, cfg.Prefix, logger), nil
}

// NewPublisherWithClient creates a publisher that uploads through client.
func NewPublisherWithClient(client ObjectPutter, bucket, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: logger}
}

// Publish uploads every file under dir and returns the uploaded keys.
func (p *Publisher) Publish(ctx context.Context, dir string) ([]string, error) {
	files, err := OutputFiles(dir)
	if err != nil {
		return nil, errors.New("E410").Wrap(err)
	}

	keys := make([]string, 0, len(files))
	for _, rel := range files {
		key := rel
		if p.prefix != "" {
			key = path.Join(p.prefix, rel)
		}
		if err := p.put(ctx, filepath.Join(dir, filepath.FromSlash(rel)), key); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}

	p.logger.Info("published build", "bucket", p.bucket, "prefix", p.prefix, "files", len(keys))
	return keys, nil
}

func (p *Publisher) put(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.New("E410").Wrap(err)
	}
	defer f.Close()

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(key),
		Body:         f,
		ContentType:  aws.String(contentType(key)),
		CacheControl: aws.String(cacheControl(key)),
	})
	if err != nil {
		return errors.New("E410").WithDetail("upload " + key).Wrap(err)
	}
	return nil
}

func contentType(key string) string {
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// cacheControl lets hashed assets be cached forever; everything else must
// be revalidated.
func cacheControl(key string) string {
	if strings.Contains(key, "/assets/") || strings.HasPrefix(key, "assets/") {
		return "public, max-age=31536000, immutable"
	}
	return "no-cache"
}
