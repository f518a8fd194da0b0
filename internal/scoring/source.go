package scoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Opener opens the byte stream of a model artifact
type Opener interface {
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
}

// FileOpener opens artifacts on the local filesystem
type FileOpener struct{}

// Open opens the file at locator
func (FileOpener) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	return os.Open(locator)
}

// S3Opener opens artifacts addressed as s3://bucket/key
type S3Opener struct {
	Region string
	client *s3.Client
}

// Open fetches the object named by locator
func (o *S3Opener) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	bucket, key, err := parseS3Locator(locator)
	if err != nil {
		return nil, err
	}
	if o.client == nil {
		var opts []func(*awsconfig.LoadOptions) error
		if o.Region != "" {
			opts = append(opts, awsconfig.WithRegion(o.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		o.client = s3.NewFromConfig(cfg)
	}

	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

func parseS3Locator(locator string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(locator, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 locator: %q", locator)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 locator must be s3://bucket/key: %q", locator)
	}
	return bucket, key, nil
}

// ArtifactLoader loads a model artifact from a locator. Locators starting with s3:// are
// fetched from S3, anything else is a local path. An empty locator means no model.
type ArtifactLoader struct {
	Locator string
	Timeout time.Duration
	Files   Opener
	S3      Opener
	Logger  *zap.Logger
}

// Load implements Loader
func (l *ArtifactLoader) Load() LoadOutcome {
	if strings.TrimSpace(l.Locator) == "" {
		return Unavailable("model path not configured")
	}

	ctx := context.Background()
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	opener := l.Files
	if strings.HasPrefix(l.Locator, "s3://") {
		opener = l.S3
	}
	if opener == nil {
		return Unavailable(fmt.Sprintf("no opener for locator %q", l.Locator))
	}

	rc, err := opener.Open(ctx, l.Locator)
	if errors.Is(err, fs.ErrNotExist) {
		return Unavailable(fmt.Sprintf("model file not found: %s", l.Locator))
	}
	if err != nil {
		return Unavailable(err.Error())
	}
	defer rc.Close()

	artifact, err := DecodeArtifact(rc)
	if err != nil {
		return Unavailable(err.Error())
	}
	pipeline, err := artifact.Pipeline()
	if err != nil {
		return Unavailable(err.Error())
	}

	if l.Logger != nil {
		l.Logger.Info("Model artifact decoded",
			zap.String("locator", l.Locator),
			zap.String("classifier", artifact.Classifier.Kind),
			zap.Int("vocabulary_size", len(artifact.Vectorizer.IDF)))
	}
	return Loaded(pipeline)
}
