package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagePayloadRoundTrip(t *testing.T) {
	msg, err := NewMessage("m1", MsgTypeUsageFeedback, "p1", UsageFeedbackMessage{
		ProjectID: "p1",
		EntityIDs: []string{"e1", "e2"},
	})
	require.NoError(t, err)

	var p UsageFeedbackMessage
	require.NoError(t, msg.UnmarshalPayload(&p))
	assert.Equal(t, "p1", p.ProjectID)
	assert.Equal(t, []string{"e1", "e2"}, p.EntityIDs)
}

func TestDLQStreamName(t *testing.T) {
	assert.Equal(t, "dlq:stream:usage:feedback", StreamUsageFeedback.DLQStream())
}

func TestCalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(1))
	assert.Equal(t, 8*time.Second, cfg.CalculateBackoff(3))
	// 超过上限后封顶
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(6))
}
