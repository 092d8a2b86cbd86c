package protocol

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// DecodeStack parses a serialized stack snapshot. An empty body decodes to
// an empty stack, matching a server that has nothing to show yet.
func DecodeStack(data []byte) (Stack, error) {
	var s Stack
	if len(data) == 0 {
		return s, nil
	}
	if err := sonic.Unmarshal(data, &s); err != nil {
		return Stack{}, fmt.Errorf("decode ui stack: %w", err)
	}
	return s, nil
}

// DecodeServiceRequests parses a serialized service request batch.
func DecodeServiceRequests(data []byte) (ServiceRequestBatch, error) {
	var b ServiceRequestBatch
	if len(data) == 0 {
		return b, nil
	}
	if err := sonic.Unmarshal(data, &b); err != nil {
		return ServiceRequestBatch{}, fmt.Errorf("decode service requests: %w", err)
	}
	return b, nil
}

// EncodeAction serializes a user action for the transport.
func EncodeAction(a Action) ([]byte, error) {
	data, err := sonic.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode action: %w", err)
	}
	return data, nil
}
