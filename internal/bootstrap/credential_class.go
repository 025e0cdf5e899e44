// Package bootstrap assesses the caller's credential class and, for a
// sufficiently privileged caller, stands up the scoped principal the
// provisioning engine runs as day-to-day.
package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/claria-ai/provisioner/internal/awsx"
)

// CredentialClass is the closed tag credential assessment emits.
type CredentialClass string

const (
	ClassRoot         CredentialClass = "root"
	ClassIamAdmin     CredentialClass = "iam_admin"
	ClassScopedClaria CredentialClass = "scoped_claria"
	ClassInsufficient CredentialClass = "insufficient"
)

// Assessment is the result of AssessCredentials: a class plus, for
// Insufficient, a diagnostic naming which probe failed.
type Assessment struct {
	Class     CredentialClass
	AccountID string
	Arn       string
	Detail    string
}

// AssessCredentials runs the three-tier probe described for account
// bootstrap: identity ARN shape, then a cheap IAM read, then the two
// scoped-principal reads the engine itself depends on.
func AssessCredentials(ctx context.Context, clients *awsx.Clients) (Assessment, error) {
	identity, err := clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Assessment{}, err
	}
	arn := aws.ToString(identity.Arn)
	accountID := aws.ToString(identity.Account)

	if strings.HasSuffix(arn, ":root") {
		return Assessment{Class: ClassRoot, AccountID: accountID, Arn: arn}, nil
	}

	if _, err := clients.IAM.ListUsers(ctx, &iam.ListUsersInput{MaxItems: aws.Int32(1)}); err == nil {
		return Assessment{Class: ClassIamAdmin, AccountID: accountID, Arn: arn}, nil
	}

	var failed string
	if _, err := clients.S3.ListBuckets(ctx, &s3.ListBucketsInput{}); err != nil {
		failed = "bucket listing"
	} else if _, err := clients.Bedrock.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{}); err != nil {
		if failed != "" {
			failed += "; "
		}
		failed += "model-registry listing"
	}
	if failed == "" {
		return Assessment{Class: ClassScopedClaria, AccountID: accountID, Arn: arn}, nil
	}
	return Assessment{
		Class: ClassInsufficient, AccountID: accountID, Arn: arn,
		Detail: "probe failed: " + failed,
	}, nil
}
