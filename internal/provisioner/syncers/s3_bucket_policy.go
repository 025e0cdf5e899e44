package syncers

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

// S3BucketPolicySyncer manages the bucket resource policy granting
// CloudTrail (or another service principal) write access to its prefix.
type S3BucketPolicySyncer struct {
	spec   provisioner.ResourceSpec
	client *s3.Client
}

func NewS3BucketPolicySyncer(spec provisioner.ResourceSpec, client *s3.Client) *S3BucketPolicySyncer {
	return &S3BucketPolicySyncer{spec: spec, client: client}
}

func (s *S3BucketPolicySyncer) Spec() provisioner.ResourceSpec { return s.spec }

func (s *S3BucketPolicySyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	out, err := s.client.GetBucketPolicy(ctx, &s3.GetBucketPolicyInput{Bucket: aws.String(s.spec.LogicalName)})
	if err != nil {
		return nil, false, nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(aws.ToString(out.Policy)), &doc); err != nil {
		return nil, false, nil
	}
	return map[string]any{"document": doc, "sids": statementSids(doc)}, true, nil
}

func statementSids(doc map[string]any) []string {
	stmts, _ := doc["Statement"].([]any)
	sids := make([]string, 0, len(stmts))
	for _, raw := range stmts {
		stmt, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if sid, ok := stmt["Sid"].(string); ok {
			sids = append(sids, sid)
		}
	}
	sort.Strings(sids)
	return sids
}

func (s *S3BucketPolicySyncer) desiredDocument() map[string]any {
	rawStatements, _ := s.spec.Desired["statements"].([]any)
	statements := make([]any, 0, len(rawStatements))
	for _, raw := range rawStatements {
		stmt, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rendered := map[string]any{
			"Sid":       stmt["sid"],
			"Effect":    stmt["effect"],
			"Principal": map[string]any{"Service": principalService(stmt["principal"])},
			"Action":    stmt["action"],
			"Resource":  stmt["resource"],
		}
		if condition := stmt["condition"]; condition != nil {
			rendered["Condition"] = condition
		}
		statements = append(statements, rendered)
	}
	return map[string]any{"Version": "2012-10-17", "Statement": statements}
}

func principalService(principal any) any {
	p, ok := principal.(map[string]any)
	if !ok {
		return nil
	}
	return p["service"]
}

func (s *S3BucketPolicySyncer) desiredSids() []string {
	rawStatements, _ := s.spec.Desired["statements"].([]any)
	sids := make([]string, 0, len(rawStatements))
	for _, raw := range rawStatements {
		stmt, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if sid, ok := stmt["sid"].(string); ok {
			sids = append(sids, sid)
		}
	}
	sort.Strings(sids)
	return sids
}

// Diff first checks statement SIDs as a cheap shape check: a missing or
// extra SID is reported immediately without rendering anything. Only when
// the SID sets match does it fall through to full JSON equality of the
// rendered documents, since a statement can keep its SID while its
// Resource, Action, or Condition silently drifts.
func (s *S3BucketPolicySyncer) Diff(actual map[string]any) []provisioner.FieldDrift {
	actualSids, _ := actual["sids"].([]string)
	actualSids = append([]string(nil), actualSids...)
	sort.Strings(actualSids)
	wantSids := s.desiredSids()
	if !equalStringSlices(actualSids, wantSids) {
		return []provisioner.FieldDrift{{
			Field: "statements", Label: "Bucket policy statements",
			Expected: wantSids, Actual: actualSids,
		}}
	}

	desiredDoc := s.desiredDocument()
	actualDoc, _ := actual["document"].(map[string]any)
	if reflect.DeepEqual(desiredDoc, actualDoc) {
		return nil
	}
	return []provisioner.FieldDrift{{
		Field: "statements", Label: "Bucket policy statements",
		Expected: desiredDoc, Actual: actualDoc,
	}}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *S3BucketPolicySyncer) put(ctx context.Context) (map[string]any, error) {
	doc := s.desiredDocument()
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	_, err = s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(s.spec.LogicalName),
		Policy: aws.String(string(body)),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"document": doc, "sids": s.desiredSids()}, nil
}

func (s *S3BucketPolicySyncer) Create(ctx context.Context) (map[string]any, error) { return s.put(ctx) }
func (s *S3BucketPolicySyncer) Update(ctx context.Context) (map[string]any, error) { return s.put(ctx) }

func (s *S3BucketPolicySyncer) Destroy(ctx context.Context) error {
	_, err := s.client.DeleteBucketPolicy(ctx, &s3.DeleteBucketPolicyInput{Bucket: aws.String(s.spec.LogicalName)})
	if err != nil {
		var notFound *types.NotFound
		if isErrAs(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}
