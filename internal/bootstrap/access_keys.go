package bootstrap

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/claria-ai/provisioner/internal/awsx"
)

// ListUserAccessKeys enriches the managed principal's access keys with
// last-used metadata so a caller hitting the two-key limit can offer
// triage (pick one to delete) before retrying bootstrap.
func ListUserAccessKeys(ctx context.Context, clients *awsx.Clients) ([]AccessKeyInfo, error) {
	listed, err := clients.IAM.ListAccessKeys(ctx, &iam.ListAccessKeysInput{UserName: aws.String(principalUserName)})
	if err != nil {
		return nil, err
	}

	out := make([]AccessKeyInfo, 0, len(listed.AccessKeyMetadata))
	for _, k := range listed.AccessKeyMetadata {
		info := AccessKeyInfo{
			AccessKeyID: aws.ToString(k.AccessKeyId),
			Status:      string(k.Status),
			CreateDate:  aws.ToTime(k.CreateDate),
		}
		lastUsed, err := clients.IAM.GetAccessKeyLastUsed(ctx, &iam.GetAccessKeyLastUsedInput{AccessKeyId: k.AccessKeyId})
		if err == nil && lastUsed.AccessKeyLastUsed != nil && lastUsed.AccessKeyLastUsed.LastUsedDate != nil {
			t := *lastUsed.AccessKeyLastUsed.LastUsedDate
			info.LastUsed = &t
		}
		out = append(out, info)
	}
	return out, nil
}

// DeleteUserAccessKey removes one access key from the managed principal,
// freeing a slot under the two-key limit so bootstrap can be retried.
func DeleteUserAccessKey(ctx context.Context, clients *awsx.Clients, accessKeyID string) error {
	_, err := clients.IAM.DeleteAccessKey(ctx, &iam.DeleteAccessKeyInput{
		UserName:    aws.String(principalUserName),
		AccessKeyId: aws.String(accessKeyID),
	})
	return err
}
