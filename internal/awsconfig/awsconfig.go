// Package awsconfig loads the AWS SDK configuration shared by the S3 store
// and the AWS secret providers.
package awsconfig

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
)

// RegionDetect asks the instance metadata service for the region
const RegionDetect = "detect"

// RegionGetter is the subset of the IMDS client used to detect the region
type RegionGetter interface {
	GetRegion(ctx context.Context, params *imds.GetRegionInput, optFns ...func(*imds.Options)) (*imds.GetRegionOutput, error)
}

func newIMDSClient() RegionGetter {
	return imds.New(imds.Options{
		HTTPClient: &http.Client{
			Timeout: 2 * time.Second,
		},
	})
}

// ResolveRegion returns region unchanged unless it is "detect", in which case
// the region is read from IMDS. An empty region is left to the SDK's default chain.
func ResolveRegion(ctx context.Context, region string, client RegionGetter) (string, error) {
	if region != RegionDetect {
		return region, nil
	}

	if client == nil {
		client = newIMDSClient()
	}

	out, err := client.GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get region from IMDS: %w", err)
	}
	return out.Region, nil
}

// Load returns the default AWS configuration for region
func Load(ctx context.Context, region string) (aws.Config, error) {
	resolved, err := ResolveRegion(ctx, region, nil)
	if err != nil {
		return aws.Config{}, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if resolved != "" {
		opts = append(opts, awsconfig.WithRegion(resolved))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}
