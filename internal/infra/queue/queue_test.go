package queue

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"

	"calldrip/internal/entity"
)

func TestCallJobWireFormat(t *testing.T) {
	job := CallJob{
		UserID:     "user-1",
		ProspectID: "pros-1",
		Script:     "Hello, this is a test call.",
		AgentSettings: entity.AgentSetting{
			Language:     "en",
			Voice:        "female",
			FirstMessage: "Hi Bob",
		},
		ScheduledTime: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
		Variables:     map[string]string{"prospectName": "Bob"},
	}

	body, err := json.Marshal(job)
	assert.NoError(t, err)

	var keys map[string]any
	assert.NoError(t, json.Unmarshal(body, &keys))
	for _, k := range []string{"user_id", "prospect_id", "script", "agent_settings", "scheduled_time", "variables"} {
		assert.Contains(t, keys, k)
	}

	var back CallJob
	assert.NoError(t, json.Unmarshal(body, &back))
	assert.Equal(t, job.ProspectID, back.ProspectID)
	assert.Equal(t, "Bob", back.Variables["prospectName"])
}

func TestDeliveryAttempts(t *testing.T) {
	assert.Equal(t, 0, deliveryAttempts(amqp.Delivery{}))
	assert.Equal(t, 2, deliveryAttempts(amqp.Delivery{Headers: amqp.Table{"x-attempts": int32(2)}}))
	assert.Equal(t, 1, deliveryAttempts(amqp.Delivery{Headers: amqp.Table{"x-attempts": int64(1)}}))
	assert.Equal(t, 0, deliveryAttempts(amqp.Delivery{Headers: amqp.Table{"x-attempts": "bogus"}}))
}

func TestBackoffDoubling(t *testing.T) {
	// Exponential backoff base 60s: attempt 1 republishes with 60s, attempt 2 with 120s.
	assert.Equal(t, int64(60000), int64(BackoffBaseMs)<<0)
	assert.Equal(t, int64(120000), int64(BackoffBaseMs)<<1)
}
