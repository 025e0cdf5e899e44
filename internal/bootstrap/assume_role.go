package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/claria-ai/provisioner/internal/awsx"
)

// AssumeRole exchanges parent credentials for a short-lived session via
// STS. The returned session token must never be persisted — callers use it
// for the lifetime of one operation and discard it.
func AssumeRole(ctx context.Context, clients *awsx.Clients, roleArn, sessionName string) (*AssumeRoleResult, error) {
	out, err := clients.STS.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleArn),
		RoleSessionName: aws.String(sessionName),
	})
	if err != nil {
		return nil, err
	}

	accountID := ""
	if out.AssumedRoleUser != nil {
		accountID = accountIDFromArn(aws.ToString(out.AssumedRoleUser.Arn))
	}

	return &AssumeRoleResult{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Expiration:      aws.ToTime(out.Credentials.Expiration),
		AccountID:       accountID,
	}, nil
}

// accountIDFromArn extracts the account segment from an ARN of the form
// "arn:aws:sts::123456789012:assumed-role/...".
func accountIDFromArn(arn string) string {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) < 5 {
		return ""
	}
	return parts[4]
}
