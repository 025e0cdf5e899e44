package syncers

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/artifact"
	"github.com/aws/aws-sdk-go-v2/service/artifact/types"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

// LegalAgreementSyncer is the Data-lifecycle BAA precondition: AWS Artifact
// agreements can't be accepted programmatically, so create/update fail with
// an operator-facing message and destroy fails with the shared read-only
// precondition error.
type LegalAgreementSyncer struct {
	spec   provisioner.ResourceSpec
	client *artifact.Client
}

func NewLegalAgreementSyncer(spec provisioner.ResourceSpec, client *artifact.Client) *LegalAgreementSyncer {
	return &LegalAgreementSyncer{spec: spec, client: client}
}

func (s *LegalAgreementSyncer) Spec() provisioner.ResourceSpec { return s.spec }

func isBAAAgreement(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "baa") || strings.Contains(lower, "business associate")
}

func (s *LegalAgreementSyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	out, err := s.client.ListCustomerAgreements(ctx, &artifact.ListCustomerAgreementsInput{})
	if err != nil {
		return nil, false, err
	}

	for _, agreement := range out.CustomerAgreements {
		if agreement.State != types.AgreementStateActive {
			continue
		}
		if !isBAAAgreement(aws.ToString(agreement.Name)) {
			continue
		}
		return map[string]any{
			"state":           "active",
			"agreement_name":  aws.ToString(agreement.Name),
			"effective_start": aws.ToString(agreement.EffectiveStart),
		}, true, nil
	}
	return nil, false, nil
}

func (s *LegalAgreementSyncer) Diff(actual map[string]any) []provisioner.FieldDrift {
	state, _ := actual["state"].(string)
	if state == "active" {
		return nil
	}
	return []provisioner.FieldDrift{{
		Field:    "state",
		Label:    "Agreement status",
		Expected: "active",
		Actual:   state,
	}}
}

func (s *LegalAgreementSyncer) Create(ctx context.Context) (map[string]any, error) {
	return nil, &provisioner.CreateFailedError{
		Label: s.spec.Label, Name: s.spec.LogicalName,
		Err: errNotAutomatable("must be accepted in the AWS Artifact console"),
	}
}

func (s *LegalAgreementSyncer) Update(ctx context.Context) (map[string]any, error) {
	return nil, &provisioner.UpdateFailedError{
		Label: s.spec.Label, Name: s.spec.LogicalName,
		Err: errNotAutomatable("agreement state cannot be modified programmatically"),
	}
}

// Destroy fails like every other Data-lifecycle mutation: legal agreements
// can't be automatically terminated and this engine never attempts to.
func (s *LegalAgreementSyncer) Destroy(ctx context.Context) error {
	return provisioner.ReadOnlyPreconditionError(s.spec.Label)
}
