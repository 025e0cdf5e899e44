package syncers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

func TestIAMUserPolicyDiffNoneWhenAllActionsPresent(t *testing.T) {
	syncer := NewIAMUserPolicySyncer(provisioner.ResourceSpec{Label: "Principal policy"}, nil, "claria-admin", "claria-admin-policy",
		[]string{"s3:GetObject", "s3:PutObject"})

	drift := syncer.Diff(map[string]any{"current_actions": []string{"s3:GetObject", "s3:PutObject", "iam:GetUser"}})
	assert.Empty(t, drift)
}

func TestIAMUserPolicyDiffListsMissingActionsSorted(t *testing.T) {
	syncer := NewIAMUserPolicySyncer(provisioner.ResourceSpec{Label: "Principal policy"}, nil, "claria-admin", "claria-admin-policy",
		[]string{"s3:PutObject", "s3:GetObject", "iam:GetUser"})

	drift := syncer.Diff(map[string]any{"current_actions": []string{"s3:GetObject"}})
	require.Len(t, drift, 1)
	assert.Equal(t, "iam_actions", drift[0].Field)
	assert.Equal(t, []string{"iam:GetUser", "s3:PutObject"}, drift[0].Actual)
}

func TestIAMUserPolicyDiffTreatsAbsentCurrentActionsAsAllMissing(t *testing.T) {
	syncer := NewIAMUserPolicySyncer(provisioner.ResourceSpec{Label: "Principal policy"}, nil, "claria-admin", "claria-admin-policy",
		[]string{"s3:GetObject"})

	drift := syncer.Diff(map[string]any{})
	require.Len(t, drift, 1)
	assert.Equal(t, []string{"s3:GetObject"}, drift[0].Actual)
}

func TestIAMUserPolicyCreateIsReadOnlyPrecondition(t *testing.T) {
	syncer := NewIAMUserPolicySyncer(provisioner.ResourceSpec{Label: "Principal policy"}, nil, "claria-admin", "claria-admin-policy", nil)
	_, err := syncer.Create(context.Background())
	assert.Error(t, err)
}

func TestIAMUserPolicyDestroyIsReadOnlyPrecondition(t *testing.T) {
	syncer := NewIAMUserPolicySyncer(provisioner.ResourceSpec{Label: "Principal policy"}, nil, "claria-admin", "claria-admin-policy", nil)
	assert.Error(t, syncer.Destroy(context.Background()))
}

func TestDecodeActionFieldHandlesSingleString(t *testing.T) {
	raw := json.RawMessage(`"s3:GetObject"`)
	assert.Equal(t, []string{"s3:GetObject"}, decodeActionField(raw))
}

func TestDecodeActionFieldHandlesStringArray(t *testing.T) {
	raw := json.RawMessage(`["s3:GetObject", "s3:PutObject"]`)
	assert.Equal(t, []string{"s3:GetObject", "s3:PutObject"}, decodeActionField(raw))
}
