package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"

	"github.com/claria-ai/provisioner/internal/awsx"
	"github.com/claria-ai/provisioner/internal/provisioner"
)

const (
	principalUserName   = provisioner.PrincipalUserName
	principalPolicyName = provisioner.PrincipalPolicyName
)

// ErrKeyLimitExceeded is returned from the create_access_key step when the
// principal already holds two access keys — AWS's hard per-user limit.
var ErrKeyLimitExceeded = errors.New("key_limit_exceeded")

const accessKeyLimit = 2

// BootstrapAccount runs the ordered bootstrap sequence against a Root or
// IamAdmin caller, standing up the scoped principal the engine runs as.
// It only ever runs for Root/IamAdmin classes; calling it with a narrower
// assessment is a programming error in the caller.
func BootstrapAccount(ctx context.Context, clients *awsx.Clients, assessment Assessment, requiredActions []string, bucketArn string) (*BootstrapReport, error) {
	report := &BootstrapReport{AccountID: assessment.AccountID}

	userArn := fmt.Sprintf("arn:aws:iam::%s:user/%s", assessment.AccountID, principalUserName)
	policyArn, err := createPolicy(ctx, clients.IAM, assessment.AccountID, requiredActions, bucketArn, userArn, report)
	if err != nil {
		report.Success = false
		return report, err
	}

	if _, err := createUser(ctx, clients.IAM, report); err != nil {
		report.Success = false
		return report, err
	}

	if err := attachPolicy(ctx, clients.IAM, policyArn, report); err != nil {
		report.Success = false
		return report, err
	}

	creds, err := createAccessKey(ctx, clients.IAM, report)
	if err != nil {
		report.Success = false
		return report, err
	}

	if err := validateNewCredentials(ctx, assessment.AccountID, creds.AccessKeyID, creds.SecretAccessKey, clients.Config.Region, report); err != nil {
		report.Success = false
		return report, err
	}

	if assessment.Class == ClassRoot {
		deleteSourceKey(ctx, clients.IAM, report)
	}

	report.NewCredentials = creds
	report.Success = true
	return report, nil
}

func createPolicy(ctx context.Context, client *iam.Client, accountID string, requiredActions []string, bucketArn, userArn string, report *BootstrapReport) (string, error) {
	const step = "create_policy"
	doc, err := renderPolicyDocument(requiredActions, bucketArn, userArn)
	if err != nil {
		report.record(step, StepFailed, err.Error())
		return "", err
	}

	out, err := client.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     aws.String(principalPolicyName),
		PolicyDocument: aws.String(doc),
	})
	if err == nil {
		report.record(step, StepSucceeded, "")
		return aws.ToString(out.Policy.Arn), nil
	}

	var alreadyExists *types.EntityAlreadyExistsException
	if !errors.As(err, &alreadyExists) {
		report.record(step, StepFailed, err.Error())
		return "", err
	}

	// IAM managed policy ARNs are deterministic: account + fixed name.
	policyArn := fmt.Sprintf("arn:aws:iam::%s:policy/%s", accountID, principalPolicyName)

	if _, err := client.CreatePolicyVersion(ctx, &iam.CreatePolicyVersionInput{
		PolicyArn:      aws.String(policyArn),
		PolicyDocument: aws.String(doc),
		SetAsDefault:   true,
	}); err != nil {
		if !pruneOldestVersionAndRetry(ctx, client, policyArn, doc) {
			report.record(step, StepFailed, err.Error())
			return "", err
		}
	}

	report.record(step, StepSucceeded, "rotated existing policy version")
	return policyArn, nil
}

// pruneOldestVersionAndRetry deletes the oldest non-default version of an
// IAM managed policy (AWS caps a policy at 5 versions) and retries the
// create-new-default-version call once.
func pruneOldestVersionAndRetry(ctx context.Context, client *iam.Client, policyArn, doc string) bool {
	versions, err := client.ListPolicyVersions(ctx, &iam.ListPolicyVersionsInput{PolicyArn: aws.String(policyArn)})
	if err != nil {
		return false
	}
	sort.Slice(versions.Versions, func(i, j int) bool {
		return versions.Versions[i].CreateDate.Before(*versions.Versions[j].CreateDate)
	})
	for _, v := range versions.Versions {
		if v.IsDefaultVersion {
			continue
		}
		if _, err := client.DeletePolicyVersion(ctx, &iam.DeletePolicyVersionInput{
			PolicyArn: aws.String(policyArn),
			VersionId: v.VersionId,
		}); err != nil {
			continue
		}
		_, err := client.CreatePolicyVersion(ctx, &iam.CreatePolicyVersionInput{
			PolicyArn:      aws.String(policyArn),
			PolicyDocument: aws.String(doc),
			SetAsDefault:   true,
		})
		return err == nil
	}
	return false
}

func createUser(ctx context.Context, client *iam.Client, report *BootstrapReport) (string, error) {
	const step = "create_user"
	out, err := client.CreateUser(ctx, &iam.CreateUserInput{UserName: aws.String(principalUserName)})
	if err == nil {
		report.record(step, StepSucceeded, "")
		return aws.ToString(out.User.Arn), nil
	}

	var alreadyExists *types.EntityAlreadyExistsException
	if !errors.As(err, &alreadyExists) {
		report.record(step, StepFailed, err.Error())
		return "", err
	}

	existing, err := client.GetUser(ctx, &iam.GetUserInput{UserName: aws.String(principalUserName)})
	if err != nil {
		report.record(step, StepFailed, err.Error())
		return "", err
	}
	report.record(step, StepSucceeded, "user already existed")
	return aws.ToString(existing.User.Arn), nil
}

func attachPolicy(ctx context.Context, client *iam.Client, policyArn string, report *BootstrapReport) error {
	const step = "attach_policy"
	_, err := client.AttachUserPolicy(ctx, &iam.AttachUserPolicyInput{
		UserName:  aws.String(principalUserName),
		PolicyArn: aws.String(policyArn),
	})
	if err != nil {
		report.record(step, StepFailed, err.Error())
		return err
	}
	report.record(step, StepSucceeded, "")
	return nil
}

func createAccessKey(ctx context.Context, client *iam.Client, report *BootstrapReport) (*NewCredentials, error) {
	const step = "create_access_key"
	existing, err := client.ListAccessKeys(ctx, &iam.ListAccessKeysInput{UserName: aws.String(principalUserName)})
	if err != nil {
		report.record(step, StepFailed, err.Error())
		return nil, err
	}
	if len(existing.AccessKeyMetadata) >= accessKeyLimit {
		report.record(step, StepFailed, "key_limit_exceeded")
		return nil, ErrKeyLimitExceeded
	}

	out, err := client.CreateAccessKey(ctx, &iam.CreateAccessKeyInput{UserName: aws.String(principalUserName)})
	if err != nil {
		report.record(step, StepFailed, err.Error())
		return nil, err
	}
	report.record(step, StepSucceeded, "")
	return &NewCredentials{
		AccessKeyID:     aws.ToString(out.AccessKey.AccessKeyId),
		SecretAccessKey: aws.ToString(out.AccessKey.SecretAccessKey),
	}, nil
}

const (
	validationAttempts = 10
	validationInterval = 2 * time.Second
)

// validateNewCredentials rides out IAM's eventual consistency window by
// retrying GetCallerIdentity against the freshly minted key for up to
// validationAttempts tries, validationInterval apart.
func validateNewCredentials(ctx context.Context, accountID, accessKeyID, secretAccessKey, region string, report *BootstrapReport) error {
	const step = "validate_new_credentials"
	report.record(step, StepInProgress, "")

	newClients, err := awsx.NewFromCredentials(ctx, region, accessKeyID, secretAccessKey, "")
	if err != nil {
		report.record(step, StepFailed, err.Error())
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= validationAttempts; attempt++ {
		_, err := newClients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err == nil {
			report.record(step, StepSucceeded, fmt.Sprintf("validated after %d attempt(s)", attempt))
			return nil
		}
		lastErr = err
		log.Debug().Int("attempt", attempt).Err(err).Msg("waiting for new credentials to propagate")

		select {
		case <-ctx.Done():
			report.record(step, StepFailed, ctx.Err().Error())
			return ctx.Err()
		case <-time.After(validationInterval):
		}
	}

	report.record(step, StepFailed, lastErr.Error())
	return &provisioner.AwsError{
		Message: fmt.Sprintf("new credentials did not validate after %d attempts", validationAttempts),
		Err:     lastErr,
	}
}

// deleteSourceKey removes every access key ListAccessKeys returns for the
// calling root identity, which includes the key that invoked bootstrap. It
// stops at the first key it cannot delete. It is explicitly non-fatal: the
// caller is warned but the overall bootstrap still succeeds without it.
func deleteSourceKey(ctx context.Context, client *iam.Client, report *BootstrapReport) {
	const step = "delete_source_key"
	keys, err := client.ListAccessKeys(ctx, &iam.ListAccessKeysInput{})
	if err != nil {
		report.record(step, StepFailed, "non-fatal: "+err.Error())
		log.Warn().Err(err).Msg("could not list root access keys for cleanup")
		return
	}
	for _, k := range keys.AccessKeyMetadata {
		if _, err := client.DeleteAccessKey(ctx, &iam.DeleteAccessKeyInput{AccessKeyId: k.AccessKeyId}); err != nil {
			report.record(step, StepFailed, "non-fatal: "+err.Error())
			log.Warn().Err(err).Str("access_key_id", aws.ToString(k.AccessKeyId)).Msg("could not delete source access key")
			return
		}
	}
	report.record(step, StepSucceeded, "")
}
