// Package wiring assembles the concrete Syncer for every spec in a manifest.
// It sits above both internal/provisioner and internal/provisioner/syncers
// so neither of those packages needs to know about the other's concrete
// types, keeping the syncer implementations free to depend only on the
// shared data model.
package wiring

import (
	"fmt"

	"github.com/claria-ai/provisioner/internal/awsx"
	"github.com/claria-ai/provisioner/internal/provisioner"
	"github.com/claria-ai/provisioner/internal/provisioner/syncers"
)

// BuildSyncers instantiates the concrete Syncer for every spec in the
// manifest, in manifest order, wiring each one to the AWS client that owns
// its resource type. The principal policy syncer additionally receives the
// manifest-wide union of required IAM actions, since its drift check is
// defined against the whole manifest rather than its own spec alone.
func BuildSyncers(manifest provisioner.Manifest, clients *awsx.Clients) ([]provisioner.Syncer, error) {
	requiredActions := provisioner.UnionIAMActions(manifest)
	out := make([]provisioner.Syncer, 0, len(manifest.Specs))

	for _, spec := range manifest.Specs {
		switch spec.TypeTag {
		case "iam_user":
			out = append(out, syncers.NewIAMUserSyncer(spec, clients.IAM))
		case "iam_user_policy":
			out = append(out, syncers.NewIAMUserPolicySyncer(spec, clients.IAM, provisioner.PrincipalUserName, provisioner.PrincipalPolicyName, requiredActions))
		case "baa_agreement":
			out = append(out, syncers.NewLegalAgreementSyncer(spec, clients.Artifact))
		case "s3_bucket":
			out = append(out, syncers.NewS3BucketSyncer(spec, clients.S3))
		case "s3_bucket_versioning":
			out = append(out, syncers.NewS3BucketVersioningSyncer(spec, clients.S3))
		case "s3_bucket_encryption":
			out = append(out, syncers.NewS3BucketEncryptionSyncer(spec, clients.S3))
		case "s3_bucket_public_access_block":
			out = append(out, syncers.NewS3BucketPublicAccessBlockSyncer(spec, clients.S3))
		case "s3_bucket_policy":
			out = append(out, syncers.NewS3BucketPolicySyncer(spec, clients.S3))
		case "cloudtrail_trail":
			out = append(out, syncers.NewCloudTrailTrailSyncer(spec, clients.CloudTrail))
		case "cloudtrail_trail_logging":
			out = append(out, syncers.NewCloudTrailTrailLoggingSyncer(spec, clients.CloudTrail))
		case "bedrock_model_agreement":
			out = append(out, syncers.NewModelAgreementSyncer(spec, clients.Bedrock))
		default:
			return nil, fmt.Errorf("no syncer registered for resource type %q", spec.TypeTag)
		}
	}

	return out, nil
}
