package stream

import (
	"reflect"
	"testing"
)

// feedAll runs the whole input through a fresh decoder using the given
// chunk size and collects emitted frames plus the done flag.
func feedAll(input string, chunkSize int) ([]string, bool) {
	var d FrameDecoder
	var frames []string
	done := false
	data := []byte(input)
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		fs, d2 := d.Feed(data[i:end])
		frames = append(frames, fs...)
		if d2 {
			done = true
		}
	}
	d.Close()
	return frames, done
}

func TestFrameReassemblyInvariantUnderChunking(t *testing.T) {
	// Includes a keepalive comment, a blank line, and multi-byte payload
	// characters so chunk boundaries can fall mid-rune.
	input := "data: {\"event\":\"message\",\"data\":\"Héllo ✓\"}\n" +
		": keepalive\n" +
		"\n" +
		"data: plain text delta\n" +
		"data: [DONE]\n"

	want, wantDone := feedAll(input, len(input))
	if !wantDone {
		t.Fatal("expected done sentinel in reference pass")
	}
	if len(want) != 2 {
		t.Fatalf("expected 2 frames, got %d: %v", len(want), want)
	}

	for size := 1; size < len(input); size++ {
		got, done := feedAll(input, size)
		if !done {
			t.Fatalf("chunk size %d: done sentinel missed", size)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("chunk size %d: frames %v, want %v", size, got, want)
		}
	}
}

func TestDecoderCRLFLines(t *testing.T) {
	var d FrameDecoder
	frames, done := d.Feed([]byte("data: a\r\ndata: b\r\n"))
	if done {
		t.Fatal("unexpected done")
	}
	if !reflect.DeepEqual(frames, []string{"a", "b"}) {
		t.Fatalf("frames = %v", frames)
	}
}

func TestDecoderDiscardsNonDataLines(t *testing.T) {
	var d FrameDecoder
	frames, _ := d.Feed([]byte("event: ping\n: comment\ndata: keep\n"))
	if !reflect.DeepEqual(frames, []string{"keep"}) {
		t.Fatalf("frames = %v", frames)
	}
}

func TestDecoderIncompleteTrailingLineNeverEmitted(t *testing.T) {
	var d FrameDecoder
	frames, done := d.Feed([]byte("data: complete\ndata: parti"))
	if done {
		t.Fatal("unexpected done")
	}
	if !reflect.DeepEqual(frames, []string{"complete"}) {
		t.Fatalf("frames = %v", frames)
	}
	// End of input: the partial line is unusable and must be dropped.
	d.Close()
	frames, _ = d.Feed([]byte("al\n"))
	if len(frames) != 0 {
		t.Fatalf("expected no frames after Close, got %v", frames)
	}
}

func TestDecoderIgnoresFramesAfterDone(t *testing.T) {
	var d FrameDecoder
	frames, done := d.Feed([]byte("data: one\ndata: [DONE]\ndata: late\n"))
	if !done {
		t.Fatal("expected done")
	}
	if !reflect.DeepEqual(frames, []string{"one"}) {
		t.Fatalf("frames = %v", frames)
	}
	frames, done = d.Feed([]byte("data: more\n"))
	if !done || len(frames) != 0 {
		t.Fatalf("decoder should stay terminal, got frames=%v done=%v", frames, done)
	}
	if !d.Done() {
		t.Fatal("Done() should report true")
	}
}

func TestDecoderSplitMidMultibyteRune(t *testing.T) {
	payload := "data: 日本語\n"
	raw := []byte(payload)

	var d FrameDecoder
	// Split inside the first multi-byte character.
	frames, _ := d.Feed(raw[:8])
	if len(frames) != 0 {
		t.Fatalf("expected no frames from partial chunk, got %v", frames)
	}
	frames, _ = d.Feed(raw[8:])
	if !reflect.DeepEqual(frames, []string{"日本語"}) {
		t.Fatalf("frames = %v", frames)
	}
}
