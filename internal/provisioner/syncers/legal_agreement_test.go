package syncers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

func TestIsBAAAgreementMatchesCaseInsensitively(t *testing.T) {
	assert.True(t, isBAAAgreement("AWS Business Associate Addendum"))
	assert.True(t, isBAAAgreement("baa agreement"))
	assert.False(t, isBAAAgreement("Acceptable Use Policy"))
}

func TestLegalAgreementDiffNoneWhenActive(t *testing.T) {
	syncer := NewLegalAgreementSyncer(provisioner.ResourceSpec{Label: "business associate agreement"}, nil)
	drift := syncer.Diff(map[string]any{"state": "active"})
	assert.Empty(t, drift)
}

func TestLegalAgreementDiffFlagsAbsentAgreement(t *testing.T) {
	syncer := NewLegalAgreementSyncer(provisioner.ResourceSpec{Label: "business associate agreement"}, nil)
	drift := syncer.Diff(map[string]any{})
	assert.Len(t, drift, 1)
	assert.Equal(t, "state", drift[0].Field)
}

func TestLegalAgreementMutationsAreAllRejected(t *testing.T) {
	syncer := NewLegalAgreementSyncer(provisioner.ResourceSpec{Label: "business associate agreement"}, nil)

	_, err := syncer.Create(context.Background())
	assert.Error(t, err)

	_, err = syncer.Update(context.Background())
	assert.Error(t, err)

	assert.Error(t, syncer.Destroy(context.Background()))
}
