package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	sigID = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	wsID  = uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
)

func TestSignalEvent_Codec(t *testing.T) {
	data, err := SignalEvent{SignalID: sigID, WorkspaceID: wsID}.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"signal_id":"11111111-1111-4111-8111-111111111111","workspace_id":"7c9e6679-7425-40de-944b-e07fc1f90ae7"}`
	if string(data) != want {
		t.Fatalf("payload = %s", data)
	}

	e, err := DecodeSignalEvent(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if e.SignalID != sigID || e.WorkspaceID != wsID {
		t.Fatalf("decoded %+v", e)
	}
}

func TestSignalEvent_RequiresIDs(t *testing.T) {
	if _, err := (SignalEvent{SignalID: sigID}).Encode(); err == nil {
		t.Fatal("expected error for missing workspace_id")
	}
	if _, err := DecodeSignalEvent([]byte(`{"signal_id":"11111111-1111-4111-8111-111111111111"}`)); err == nil {
		t.Fatal("expected error for missing workspace_id")
	}
	if _, err := DecodeSignalEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestDispatch_LogsHandlerErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := &Bus{logger: zap.New(core)}
	data, _ := SignalEvent{SignalID: sigID, WorkspaceID: wsID}.Encode()

	var got SignalEvent
	b.dispatch(context.Background(), "signals.created", data, func(_ context.Context, e SignalEvent) error {
		got = e
		return errors.New("embed failed")
	})

	if got.SignalID != sigID {
		t.Fatalf("handler not invoked with decoded event: %+v", got)
	}
	if logs.FilterMessage("Event handler failed").Len() != 1 {
		t.Fatalf("expected handler failure log, got %v", logs.All())
	}
}

func TestDispatch_DropsMalformed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := &Bus{logger: zap.New(core)}

	b.dispatch(context.Background(), "signals.created", []byte(`{}`), func(context.Context, SignalEvent) error {
		t.Fatal("handler must not run for malformed events")
		return nil
	})
	if logs.FilterMessage("Dropping malformed event").Len() != 1 {
		t.Fatal("expected malformed event log")
	}
}
