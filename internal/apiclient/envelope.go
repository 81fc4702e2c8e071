package apiclient

import (
	"bytes"
	"encoding/json"
)

// envelope is the API's response wrapper.
type envelope struct {
	Code    json.RawMessage `json:"code"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// unwrap checks the embedded code and returns the payload's data. The call
// succeeds only when code is the number 0 or 200; a missing or non-numeric
// code is a business failure. When data is absent or null the whole body is
// returned.
func unwrap(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &BusinessError{Message: MsgRequestFailed}
	}
	if !codeOK(env.Code) {
		return nil, &BusinessError{Code: string(env.Code), Message: message(env.Message)}
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return json.RawMessage(bytes.TrimSpace(body)), nil
	}
	return json.RawMessage(data), nil
}

func codeOK(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var code float64
	if err := json.Unmarshal(raw, &code); err != nil {
		return false
	}
	return code == 0 || code == 200
}

func message(raw json.RawMessage) string {
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil || msg == "" {
		return MsgRequestFailed
	}
	return msg
}
