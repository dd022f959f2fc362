package lightx

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The generation API answers in one of three shapes depending on which proxy
// sits in front of it: the payload directly, the payload nested under "body",
// or "body" holding a JSON-encoded string of the payload. UnwrapPayload tries
// them in that fixed fallback order.
func UnwrapPayload(raw []byte, out interface{}) error {
	var env struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if len(env.Body) == 0 || bytes.Equal(env.Body, []byte("null")) {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return nil
	}

	if env.Body[0] == '"' {
		var inner string
		if err := json.Unmarshal(env.Body, &inner); err != nil {
			return fmt.Errorf("decode body string: %w", err)
		}
		if err := json.Unmarshal([]byte(inner), out); err != nil {
			return fmt.Errorf("decode nested payload: %w", err)
		}
		return nil
	}

	if err := json.Unmarshal(env.Body, out); err != nil {
		return fmt.Errorf("decode nested payload: %w", err)
	}
	return nil
}
