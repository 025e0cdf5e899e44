package bootstrap

import (
	"encoding/json"
	"strings"
)

// renderPolicyDocument builds the minimal IAM policy document granting
// exactly the union of actions the manifest declares, per §6's "no
// wildcards outside that" requirement. s3: actions are scoped to the
// caller-supplied bucket ARN, iam: actions to the caller-supplied user ARN,
// and every other action is granted against "*".
func renderPolicyDocument(actions []string, bucketArn, userArn string) (string, error) {
	doc := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{
			{
				"Sid":      "ClariaProvisionerBucketAccess",
				"Effect":   "Allow",
				"Action":   filterByPrefix(actions, "s3:"),
				"Resource": []string{bucketArn, bucketArn + "/*"},
			},
			{
				"Sid":      "ClariaProvisionerSelfRead",
				"Effect":   "Allow",
				"Action":   filterByPrefix(actions, "iam:"),
				"Resource": userArn,
			},
			{
				"Sid":      "ClariaProvisionerAccountWideActions",
				"Effect":   "Allow",
				"Action":   withoutPrefixes(actions, "s3:", "iam:"),
				"Resource": "*",
			},
		},
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func filterByPrefix(actions []string, prefix string) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		if strings.HasPrefix(a, prefix) {
			out = append(out, a)
		}
	}
	return out
}

func withoutPrefixes(actions []string, prefixes ...string) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		matched := false
		for _, p := range prefixes {
			if strings.HasPrefix(a, p) {
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, a)
		}
	}
	return out
}
