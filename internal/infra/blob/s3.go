package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
)

type headObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store checks assets with HeadObject. Calls go through a circuit breaker
// that opens after five consecutive transport failures; a missing object is
// not a failure.
type S3Store struct {
	client  headObjectAPI
	bucket  string
	breaker *circuit.Breaker
}

func NewS3(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Blob.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Blob.Region))
	}
	if cfg.Blob.AccessKey != "" && cfg.Blob.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Blob.AccessKey, cfg.Blob.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Blob.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Blob.Endpoint)
		}
		o.UsePathStyle = cfg.Blob.UsePathStyle
	})
	return newS3Store(client, cfg.Blob.Bucket), nil
}

func newS3Store(client headObjectAPI, bucket string) *S3Store {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Second
	b.MaxInterval = 2 * time.Minute
	b.Multiplier = 2.0
	b.Reset()

	return &S3Store{
		client: client,
		bucket: bucket,
		breaker: circuit.NewBreakerWithOptions(&circuit.Options{
			BackOff:    b,
			ShouldTrip: circuit.ThresholdTripFunc(5),
		}),
	}
}

func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	if !s.breaker.Ready() {
		return false, ErrUnavailable
	}

	exists := false
	err := s.breaker.Call(func() error {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			exists = true
			return nil
		}
		if isNotFound(err) {
			return nil
		}
		return err
	}, 0)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return exists, nil
}

// Tripped reports whether the breaker is open, for health checks.
func (s *S3Store) Tripped() bool {
	return s.breaker.Tripped()
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}
