// Package awsx aggregates the narrow set of AWS SDK v2 service clients the
// provisioning engine needs, the same way the teacher's internal/aws client
// aggregates its own (much broader) set of service clients behind one
// config-driven constructor.
package awsx

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/artifact"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Clients bundles every AWS service client the provisioner and bootstrap
// packages call into, built once from a resolved aws.Config.
type Clients struct {
	Config     aws.Config
	IAM        *iam.Client
	S3         *s3.Client
	STS        *sts.Client
	CloudTrail *cloudtrail.Client
	Bedrock    *bedrock.Client
	Artifact   *artifact.Client
}

// New builds a Clients bundle from the default credential chain, optionally
// scoped to a named profile and region.
func New(ctx context.Context, profile, region string) (*Clients, error) {
	cfg, err := loadConfig(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return fromConfig(cfg), nil
}

// NewFromCredentials builds a Clients bundle from an explicit static
// access-key/secret/session-token triple, used by bootstrap to validate a
// freshly minted principal without touching the ambient credential chain.
func NewFromCredentials(ctx context.Context, region, accessKeyID, secretAccessKey, sessionToken string) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return fromConfig(cfg), nil
}

func fromConfig(cfg aws.Config) *Clients {
	return &Clients{
		Config:     cfg,
		IAM:        iam.NewFromConfig(cfg),
		S3:         s3.NewFromConfig(cfg),
		STS:        sts.NewFromConfig(cfg),
		CloudTrail: cloudtrail.NewFromConfig(cfg),
		Bedrock:    bedrock.NewFromConfig(cfg),
		Artifact:   artifact.NewFromConfig(cfg),
	}
}

// awsCLICredentials mirrors the "process" credential format the aws CLI's
// `configure export-credentials` subcommand emits.
type awsCLICredentials struct {
	Version         int    `json:"Version"`
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	SessionToken    string `json:"SessionToken"`
}

// loadConfig resolves an aws.Config the same two-step way the teacher's
// NewClientWithProfile does: shell out to the aws CLI's credential-process
// export first (it already understands SSO and assumed-role sessions the
// SDK's own profile resolution sometimes misses), falling back to plain
// shared-config profile resolution.
func loadConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile == "" {
		return awsconfig.LoadDefaultConfig(ctx, opts...)
	}

	if creds, err := exportCredentialsViaCLI(ctx, profile); err == nil {
		credOpts := append(opts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)))
		return awsconfig.LoadDefaultConfig(ctx, credOpts...)
	}

	profileOpts := append(opts, awsconfig.WithSharedConfigProfile(profile))
	return awsconfig.LoadDefaultConfig(ctx, profileOpts...)
}

func exportCredentialsViaCLI(ctx context.Context, profile string) (*awsCLICredentials, error) {
	cmd := exec.CommandContext(ctx, "aws", "configure", "export-credentials",
		"--profile", profile, "--format", "process")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("aws configure export-credentials: %w", err)
	}
	var creds awsCLICredentials
	if err := json.Unmarshal(out, &creds); err != nil {
		return nil, fmt.Errorf("parse exported credentials: %w", err)
	}
	if strings.TrimSpace(creds.AccessKeyID) == "" {
		return nil, fmt.Errorf("exported credentials were empty")
	}
	return &creds, nil
}
