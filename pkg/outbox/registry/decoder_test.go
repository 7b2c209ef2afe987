package registry

import (
	"encoding/json"
	"testing"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventRequestStatusChanged, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"to_status":"diagnosis"}`)
	output, err := reg.Decode(enums.EventRequestStatusChanged, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["to_status"] != "diagnosis" {
		t.Fatalf("unexpected output %+v", output)
	}

	if _, err := reg.Decode(enums.EventRequestStatusChanged, 2, input); err == nil {
		t.Fatalf("expected error for unregistered version")
	}
}
