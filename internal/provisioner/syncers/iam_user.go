// Package syncers holds one Syncer implementation per resource type tag
// declared by provisioner.BuildManifest.
package syncers

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

// IAMUserSyncer is the Data-lifecycle precondition syncer for the engine's
// managed principal: it verifies the user exists but never creates, updates,
// or destroys it.
type IAMUserSyncer struct {
	spec   provisioner.ResourceSpec
	client *iam.Client
}

func NewIAMUserSyncer(spec provisioner.ResourceSpec, client *iam.Client) *IAMUserSyncer {
	return &IAMUserSyncer{spec: spec, client: client}
}

func (s *IAMUserSyncer) Spec() provisioner.ResourceSpec { return s.spec }

func (s *IAMUserSyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	out, err := s.client.GetUser(ctx, &iam.GetUserInput{UserName: aws.String(s.spec.LogicalName)})
	if err != nil {
		var noSuchEntity *types.NoSuchEntityException
		if errors.As(err, &noSuchEntity) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return map[string]any{
		"exists": true,
		"arn":    aws.ToString(out.User.Arn),
	}, true, nil
}

// Diff is always empty: existence is the only thing this syncer tracks.
func (s *IAMUserSyncer) Diff(actual map[string]any) []provisioner.FieldDrift {
	return nil
}

func (s *IAMUserSyncer) Create(ctx context.Context) (map[string]any, error) {
	return nil, provisioner.ReadOnlyPreconditionError(s.spec.Label)
}

func (s *IAMUserSyncer) Update(ctx context.Context) (map[string]any, error) {
	return nil, provisioner.ReadOnlyPreconditionError(s.spec.Label)
}

func (s *IAMUserSyncer) Destroy(ctx context.Context) error {
	return provisioner.ReadOnlyPreconditionError(s.spec.Label)
}
