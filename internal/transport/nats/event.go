package nats

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// SignalEvent announces that a signal was created or deleted.
type SignalEvent struct {
	SignalID    uuid.UUID `json:"signal_id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
}

// Encode marshals e to its wire payload.
func (e SignalEvent) Encode() ([]byte, error) {
	if e.SignalID == uuid.Nil || e.WorkspaceID == uuid.Nil {
		return nil, fmt.Errorf("signal event requires signal_id and workspace_id")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal signal event: %w", err)
	}
	return data, nil
}

// DecodeSignalEvent parses a wire payload.
func DecodeSignalEvent(data []byte) (SignalEvent, error) {
	var e SignalEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return SignalEvent{}, fmt.Errorf("unmarshal signal event: %w", err)
	}
	if e.SignalID == uuid.Nil || e.WorkspaceID == uuid.Nil {
		return SignalEvent{}, fmt.Errorf("signal event requires signal_id and workspace_id")
	}
	return e, nil
}
