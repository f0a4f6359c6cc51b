package sse

import (
	"strings"
	"testing"
)

func event(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n\n"
}

func TestDecoderSingleFeed(t *testing.T) {
	d := &Decoder{}
	stream := event("Hello") + event(" world") + "data: [DONE]\n\n"

	deltas := d.Feed([]byte(stream))
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d: %v", len(deltas), deltas)
	}
	if d.Text() != "Hello world" {
		t.Fatalf("expected %q, got %q", "Hello world", d.Text())
	}
	if !d.Done() {
		t.Fatalf("expected done after sentinel")
	}
}

func TestDecoderChunkSplitInvariance(t *testing.T) {
	stream := event("สวัส") + event("ดีค่ะ") + ": keep-alive\n" + event(" ยินดีต้อนรับ") + "data: [DONE]\n\n"

	// Reference: the whole stream in one feed.
	ref := &Decoder{}
	ref.Feed([]byte(stream))
	want := ref.Text()
	if want == "" {
		t.Fatalf("reference decode produced no content")
	}

	// Two-way splits at every byte offset.
	for i := 0; i <= len(stream); i++ {
		d := &Decoder{}
		d.Feed([]byte(stream[:i]))
		d.Feed([]byte(stream[i:]))
		if got := d.Text(); got != want {
			t.Fatalf("split at %d: expected %q, got %q", i, want, got)
		}
		if !d.Done() {
			t.Fatalf("split at %d: sentinel lost", i)
		}
	}

	// Three-way splits on a stride to keep the grid bounded.
	for i := 0; i < len(stream); i += 3 {
		for j := i; j <= len(stream); j += 7 {
			d := &Decoder{}
			d.Feed([]byte(stream[:i]))
			d.Feed([]byte(stream[i:j]))
			d.Feed([]byte(stream[j:]))
			if got := d.Text(); got != want {
				t.Fatalf("splits at %d,%d: expected %q, got %q", i, j, want, got)
			}
		}
	}
}

func TestDecoderByteAtATime(t *testing.T) {
	stream := event("a") + event("b") + event("c") + "data: [DONE]\n\n"
	d := &Decoder{}
	for i := 0; i < len(stream); i++ {
		d.Feed([]byte{stream[i]})
	}
	if d.Text() != "abc" {
		t.Fatalf("expected %q, got %q", "abc", d.Text())
	}
}

func TestDecoderSentinelDoesNotTruncate(t *testing.T) {
	d := &Decoder{}
	d.Feed([]byte(event("before")))
	d.Feed([]byte("data: [DONE]\n\n"))
	if !d.Done() {
		t.Fatalf("expected done")
	}
	if d.Text() != "before" {
		t.Fatalf("sentinel truncated content: %q", d.Text())
	}

	// Content after the sentinel is still appended while the connection lives.
	d.Feed([]byte(event(" after")))
	if d.Text() != "before after" {
		t.Fatalf("expected post-sentinel content kept, got %q", d.Text())
	}
}

func TestDecoderSkipsCommentsAndBlankLines(t *testing.T) {
	d := &Decoder{}
	d.Feed([]byte(": ping\n\n\nevent: message\n" + event("x")))
	if d.Text() != "x" {
		t.Fatalf("expected %q, got %q", "x", d.Text())
	}
}

func TestDecoderStripsCarriageReturn(t *testing.T) {
	d := &Decoder{}
	d.Feed([]byte(`data: {"choices":[{"delta":{"content":"crlf"}}]}` + "\r\n\r\n"))
	if d.Text() != "crlf" {
		t.Fatalf("expected %q, got %q", "crlf", d.Text())
	}
}

func TestDecoderPushbackHoldsPartialEvent(t *testing.T) {
	full := event("fragment")
	cut := strings.Index(full, "delta") // split mid-JSON

	d := &Decoder{}
	if deltas := d.Feed([]byte(full[:cut])); len(deltas) != 0 {
		t.Fatalf("expected no deltas from partial event, got %v", deltas)
	}
	if d.Text() != "" {
		t.Fatalf("partial event leaked content: %q", d.Text())
	}
	if deltas := d.Feed([]byte(full[cut:])); len(deltas) != 1 || deltas[0] != "fragment" {
		t.Fatalf("expected completed delta, got %v", deltas)
	}
}

func TestDecoderEmptyDeltaIgnored(t *testing.T) {
	d := &Decoder{}
	d.Feed([]byte(`data: {"choices":[{"delta":{}}]}` + "\n\n" + event("ok")))
	if d.Text() != "ok" {
		t.Fatalf("expected %q, got %q", "ok", d.Text())
	}
}
