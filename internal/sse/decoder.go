// Package sse implements the incremental decoder for OpenAI-style
// server-sent-event chat streams. The same state machine runs on both sides
// of the relay: the server feeds it the bytes it forwards so it can persist
// the assistant reply, and the chat client feeds it the response body so it
// can render deltas as they arrive.
package sse

import (
	"encoding/json"
	"strings"
)

const (
	dataPrefix = "data: "
	doneToken  = "[DONE]"
)

// Chunk is a single decoded stream event.
type Chunk struct {
	Choices []Choice `json:"choices"`
}

// Choice carries one incremental delta.
type Choice struct {
	Delta Delta `json:"delta"`
}

// Delta is the incremental content fragment of an event.
type Delta struct {
	Content string `json:"content"`
}

// Decoder reconstructs content deltas from an arbitrarily chunked SSE byte
// stream. It owns a single pending buffer holding bytes that do not yet form
// a complete, parseable event. The zero value is ready to use.
//
// Feed must be called with consecutive slices of the stream in receipt
// order; the final accumulated text is then independent of how the transport
// split the bytes.
type Decoder struct {
	pending string
	acc     strings.Builder
	done    bool
}

// Feed appends p to the pending buffer and extracts every content delta that
// is now complete. Returned deltas are in stream order.
func (d *Decoder) Feed(p []byte) []string {
	d.pending += string(p)

	var deltas []string
	for {
		nl := strings.Index(d.pending, "\n")
		if nl < 0 {
			break
		}
		line := d.pending[:nl]
		d.pending = d.pending[nl+1:]

		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		data := line[len(dataPrefix):]
		if strings.TrimSpace(data) == doneToken {
			// Advisory only: the upstream connection decides when the
			// stream actually ends, so keep decoding whatever follows.
			d.done = true
			continue
		}

		var chunk Chunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// The event was split across reads. Push the whole line back,
			// newline included, and wait for the rest to arrive.
			d.pending = line + "\n" + d.pending
			break
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		d.acc.WriteString(content)
		deltas = append(deltas, content)
	}
	return deltas
}

// Text returns all content accumulated so far.
func (d *Decoder) Text() string {
	return d.acc.String()
}

// Done reports whether the [DONE] sentinel has been seen.
func (d *Decoder) Done() bool {
	return d.done
}
