package syncers

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

// IAMUserPolicySyncer is the Data-lifecycle precondition syncer for the
// policy attached to the managed principal. RequiredActions is the union of
// iam_actions across the whole manifest (§4.1): the policy must grant every
// action any managed syncer needs, not just its own.
type IAMUserPolicySyncer struct {
	spec            provisioner.ResourceSpec
	client          *iam.Client
	userName        string
	policyName      string
	requiredActions map[string]struct{}
}

func NewIAMUserPolicySyncer(spec provisioner.ResourceSpec, client *iam.Client, userName, policyName string, requiredActions []string) *IAMUserPolicySyncer {
	set := make(map[string]struct{}, len(requiredActions))
	for _, a := range requiredActions {
		set[a] = struct{}{}
	}
	return &IAMUserPolicySyncer{spec: spec, client: client, userName: userName, policyName: policyName, requiredActions: set}
}

func (s *IAMUserPolicySyncer) Spec() provisioner.ResourceSpec { return s.spec }

// policyDocument is the minimal shape this syncer needs to read out Allow
// statement actions; it ignores everything else in the document.
type policyDocument struct {
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect string          `json:"Effect"`
	Action json.RawMessage `json:"Action"`
}

func (s *IAMUserPolicySyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	attached, err := s.client.ListAttachedUserPolicies(ctx, &iam.ListAttachedUserPoliciesInput{
		UserName: aws.String(s.userName),
	})
	if err != nil {
		var noSuchEntity *types.NoSuchEntityException
		if errors.As(err, &noSuchEntity) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var policyArn string
	for _, p := range attached.AttachedPolicies {
		if aws.ToString(p.PolicyName) == s.policyName {
			policyArn = aws.ToString(p.PolicyArn)
			break
		}
	}
	if policyArn == "" {
		return nil, false, nil
	}

	policy, err := s.client.GetPolicy(ctx, &iam.GetPolicyInput{PolicyArn: aws.String(policyArn)})
	if err != nil {
		return nil, false, err
	}

	version, err := s.client.GetPolicyVersion(ctx, &iam.GetPolicyVersionInput{
		PolicyArn: aws.String(policyArn),
		VersionId: policy.Policy.DefaultVersionId,
	})
	if err != nil {
		return nil, false, err
	}

	decoded, err := url.QueryUnescape(aws.ToString(version.PolicyVersion.Document))
	if err != nil {
		return nil, false, err
	}

	var doc policyDocument
	if err := json.Unmarshal([]byte(decoded), &doc); err != nil {
		return nil, false, err
	}

	currentActions := make([]string, 0)
	for _, stmt := range doc.Statement {
		if stmt.Effect != "Allow" {
			continue
		}
		currentActions = append(currentActions, decodeActionField(stmt.Action)...)
	}

	return map[string]any{
		"policy_attached": true,
		"policy_document": decoded,
		"current_actions": currentActions,
	}, true, nil
}

// decodeActionField handles the two JSON shapes an IAM statement's Action
// field can take: a single string or an array of strings.
func decodeActionField(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

// Diff computes requiredActions - currentActions; any missing action
// surfaces as one drift entry listing everything still absent.
func (s *IAMUserPolicySyncer) Diff(actual map[string]any) []provisioner.FieldDrift {
	currentRaw, _ := actual["current_actions"].([]string)
	current := make(map[string]struct{}, len(currentRaw))
	for _, a := range currentRaw {
		current[a] = struct{}{}
	}

	missing := make([]string, 0)
	for required := range s.requiredActions {
		if _, ok := current[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	required := make([]string, 0, len(s.requiredActions))
	for a := range s.requiredActions {
		required = append(required, a)
	}
	sort.Strings(required)

	return []provisioner.FieldDrift{{
		Field:    "iam_actions",
		Label:    "IAM permissions",
		Expected: required,
		Actual:   missing,
	}}
}

func (s *IAMUserPolicySyncer) Create(ctx context.Context) (map[string]any, error) {
	return nil, provisioner.ReadOnlyPreconditionError(s.spec.Label)
}

func (s *IAMUserPolicySyncer) Update(ctx context.Context) (map[string]any, error) {
	return nil, provisioner.ReadOnlyPreconditionError(s.spec.Label)
}

func (s *IAMUserPolicySyncer) Destroy(ctx context.Context) error {
	return provisioner.ReadOnlyPreconditionError(s.spec.Label)
}
