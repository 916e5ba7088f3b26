package persistence

import (
	"time"
)

func createEvent(
	eventType EventType,
	operation string,
	collectionName string,
	requestID string,
	input any,
	output any,
	err error,
	startTime time.Time,
) Event {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	var errStr *string
	if err != nil {
		msg := err.Error()
		errStr = &msg
	}

	return Event{
		Type:       eventType,
		Timestamp:  time.Now().UnixMilli(),
		Operation:  operation,
		Collection: collectionName,
		RequestID:  requestID,
		Input:      input,
		Output:     output,
		Error:      errStr,
		Duration:   duration,
	}
}
