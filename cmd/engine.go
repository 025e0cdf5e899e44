package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/viper"

	"github.com/claria-ai/provisioner/internal/awsx"
	"github.com/claria-ai/provisioner/internal/provisioner"
)

// engineContext bundles the resolved clients, manifest, persistence handle,
// and loaded state every plan/apply/destroy command needs. Building it is
// the one place account ID resolution, manifest construction, and state
// loading happen, so the commands themselves stay thin.
type engineContext struct {
	clients     *awsx.Clients
	manifest    provisioner.Manifest
	persistence provisioner.Persistence
	state       provisioner.ProvisionerState
}

func newEngineContext(ctx context.Context) (*engineContext, error) {
	profile := viper.GetString("aws.profile")
	region := viper.GetString("aws.region")
	systemName := viper.GetString("system_name")

	clients, err := awsx.New(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("build aws clients: %w", err)
	}

	identity, err := clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("resolve account identity: %w", err)
	}
	accountID := *identity.Account

	resolvedRegion := clients.Config.Region
	manifest := provisioner.BuildManifest(accountID, systemName, resolvedRegion)

	bucket := ""
	for _, spec := range manifest.Specs {
		if spec.TypeTag == "s3_bucket" {
			bucket = spec.LogicalName
			break
		}
	}

	remote := provisioner.S3ObjectStore{Client: clients.S3, Bucket: bucket}
	persistence := provisioner.NewPersistence(remote, systemName)

	state, err := persistence.Load(ctx, resolvedRegion, bucket)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	return &engineContext{clients: clients, manifest: manifest, persistence: persistence, state: state}, nil
}
