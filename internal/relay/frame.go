// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"encoding/json"
	"fmt"
)

// Comment frames are ignored by EventSource clients but keep the stream
// (and any proxy in between) alive.
var (
	ConnectedFrame = []byte(": connected\n\n")
	KeepAliveFrame = []byte(": ping\n\n")
)

// DataFrame wraps an already-encoded payload as "data: <payload>\n\n".
func DataFrame(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, '\n', '\n')
	return frame
}

// EncodeEvent marshals v to JSON and wraps it in a data frame.
func EncodeEvent(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return DataFrame(payload), nil
}
