package tickets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

func TestAssignedAgent(t *testing.T) {
	tests := []struct {
		violation model.ViolationType
		agent     string
	}{
		{model.ViolationSpeeding, "TRAFFIC-SPEED-001"},
		{model.ViolationRedLight, "TRAFFIC-SIGNAL-001"},
		{model.ViolationStopSign, "TRAFFIC-SIGNAL-001"},
		{model.ViolationParking, "TRAFFIC-PARKING-001"},
		{model.ViolationCarelessDriving, "TRAFFIC-RECKLESS-001"},
		{model.ViolationRecklessDriving, "TRAFFIC-RECKLESS-001"},
		{model.ViolationDUIDWI, "TRAFFIC-DUI-001"},
		{model.ViolationLicenseIssue, "TRAFFIC-LICENSE-001"},
		{model.ViolationRegistration, "TRAFFIC-LICENSE-001"},
		{model.ViolationOther, FallbackAgentID},
	}

	for _, tt := range tests {
		t.Run(string(tt.violation), func(t *testing.T) {
			assert.Equal(t, tt.agent, AssignedAgent(tt.violation))
		})
	}
}

func TestAssignedAgent_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, "TRAFFIC-SPEED-001", AssignedAgent(model.ViolationSpeeding))
	}
}

func TestIntakePriority(t *testing.T) {
	assert.Equal(t, model.DiscussionUrgent, IntakePriority(model.ViolationDUIDWI))
	assert.Equal(t, model.DiscussionUrgent, IntakePriority(model.ViolationRecklessDriving))
	assert.Equal(t, model.DiscussionHigh, IntakePriority(model.ViolationSpeeding))
	assert.Equal(t, model.DiscussionHigh, IntakePriority(model.ViolationParking))
	assert.Equal(t, model.DiscussionHigh, IntakePriority(model.ViolationOther))
}
