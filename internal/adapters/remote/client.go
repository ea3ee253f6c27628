package remote

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// New returns the remote cache described by settings: an S3Cache when a
// bucket is configured, Disabled otherwise. Credentials come from the
// default AWS chain.
func New(ctx context.Context, settings domain.RemoteSettings) (ports.RemoteCache, error) {
	if !settings.Enabled() {
		return Disabled{}, nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if settings.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(settings.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(cfg, ClientOptions(settings)...)
	return NewS3Cache(client, settings.Bucket, settings.Prefix), nil
}

// ClientOptions returns the S3 client options for settings.
func ClientOptions(settings domain.RemoteSettings) []func(*s3.Options) {
	var opts []func(*s3.Options)
	if settings.Endpoint != "" {
		endpoint := settings.Endpoint
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if settings.PathStyle {
		opts = append(opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return opts
}
