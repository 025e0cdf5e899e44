package syncers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrock/types"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

// ModelAgreementSyncer accepts the marketplace agreement for one foundation
// model. Unlike every other syncer here, Read itself performs the
// acceptance attempt: Bedrock's agreement offers are consumed as a
// side-effecting probe rather than split across a separate read/create
// pair, since there is no idempotent "has this account already accepted"
// call that doesn't also require walking the offers list. A later Diff
// against a still-pending agreement is what drives a subsequent plan entry,
// not a separate create step.
type ModelAgreementSyncer struct {
	spec   provisioner.ResourceSpec
	client *bedrock.Client
}

func NewModelAgreementSyncer(spec provisioner.ResourceSpec, client *bedrock.Client) *ModelAgreementSyncer {
	return &ModelAgreementSyncer{spec: spec, client: client}
}

func (s *ModelAgreementSyncer) Spec() provisioner.ResourceSpec { return s.spec }

func (s *ModelAgreementSyncer) modelID() string { return s.spec.LogicalName }

// Read never trusts GetFoundationModelAvailability's AgreementAvailability
// status: Bedrock reports it as "Available" both when an offer is still
// outstanding and when the agreement has already been accepted, so it can't
// distinguish the two. The only reliable signal is attempting acceptance
// itself and seeing whether it succeeds; a ConflictException (the agreement
// already exists) counts as success.
func (s *ModelAgreementSyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	offers, err := s.client.ListFoundationModelAgreementOffers(ctx, &bedrock.ListFoundationModelAgreementOffersInput{
		ModelId: aws.String(s.modelID()),
	})
	if err != nil || len(offers.Offers) == 0 {
		return map[string]any{"agreement": "pending"}, true, nil
	}

	accepted := false
	for _, offer := range offers.Offers {
		_, err := s.client.CreateFoundationModelAgreement(ctx, &bedrock.CreateFoundationModelAgreementInput{
			ModelId:    aws.String(s.modelID()),
			OfferToken: offer.OfferToken,
		})
		var conflict *bedrocktypes.ConflictException
		if err == nil || isErrAs(err, &conflict) {
			accepted = true
		}
	}
	if !accepted {
		return map[string]any{"agreement": "pending"}, true, nil
	}
	return map[string]any{"agreement": "accepted"}, true, nil
}

// Diff flags anything short of a fully accepted agreement.
func (s *ModelAgreementSyncer) Diff(actual map[string]any) []provisioner.FieldDrift {
	state, _ := actual["agreement"].(string)
	if state == "accepted" {
		return nil
	}
	return []provisioner.FieldDrift{{Field: "agreement", Label: "Model marketplace agreement", Expected: "accepted", Actual: state}}
}

// Create re-runs the same accept-offers probe Read performs: acceptance is
// idempotent, so converging here is identical to converging on read.
func (s *ModelAgreementSyncer) Create(ctx context.Context) (map[string]any, error) {
	props, _, err := s.Read(ctx)
	if err != nil {
		return nil, &provisioner.CreateFailedError{Label: s.spec.Label, Name: s.modelID(), Err: err}
	}
	if state, _ := props["agreement"].(string); state != "accepted" {
		return nil, &provisioner.CreateFailedError{Label: s.spec.Label, Name: s.modelID(), Err: errNotAutomatable("no agreement offer could be accepted for this model; it may require marketplace enablement in the console")}
	}
	return props, nil
}

func (s *ModelAgreementSyncer) Update(ctx context.Context) (map[string]any, error) {
	return s.Create(ctx)
}

// Destroy is a documented no-op: Bedrock exposes no API to revoke an
// accepted marketplace agreement.
func (s *ModelAgreementSyncer) Destroy(ctx context.Context) error {
	return nil
}
