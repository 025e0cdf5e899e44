package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

func TestPlanHasChangesFalseWhenEverythingInSync(t *testing.T) {
	entries := []provisioner.PlanEntry{
		{Action: provisioner.ActionOk, Cause: provisioner.CauseInSync},
		{Action: provisioner.ActionOk, Cause: provisioner.CauseInSync},
	}
	assert.False(t, planHasChanges(entries))
}

func TestPlanHasChangesTrueForPreconditionFailedAlone(t *testing.T) {
	entries := []provisioner.PlanEntry{
		{Action: provisioner.ActionOk, Cause: provisioner.CauseInSync},
		{Action: provisioner.ActionPreconditionFailed},
	}
	assert.True(t, planHasChanges(entries), "a blocked precondition must not be reported as nothing to do")
}

func TestPlanHasChangesTrueForCreate(t *testing.T) {
	entries := []provisioner.PlanEntry{{Action: provisioner.ActionCreate, Cause: provisioner.CauseFirstProvision}}
	assert.True(t, planHasChanges(entries))
}
