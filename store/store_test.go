package store

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestFrames(t *testing.T) {
	payloads := [][]byte{[]byte("first"), {}, bytes.Repeat([]byte{7}, 1000)}
	buf := &bytes.Buffer{}
	for _, p := range payloads {
		if err := WriteFrame(buf, p); err != nil {
			t.Fatalf("writing frame: %v", err)
		}
	}
	for i, p := range payloads {
		got, err := ReadFrame(buf)
		if err != nil {
			t.Fatalf("reading frame %d: %v", i, err)
		}
		if !bytes.Equal(got, p) {
			t.Errorf("frame %d: expected %v, got %v", i, p, got)
		}
	}
	if _, err := ReadFrame(buf); err != io.EOF {
		t.Errorf("expected EOF after the last frame, got %v", err)
	}
}

func TestFrameCorruption(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteFrame(buf, []byte("payload")); err != nil {
		t.Fatalf("writing frame: %v", err)
	}
	frame := buf.Bytes()
	testCases := []struct {
		name     string
		data     func() []byte
		expected error
	}{
		{"magic", func() []byte { d := append([]byte(nil), frame...); d[0] = 0; return d }, ErrInvalidMagic},
		{"version", func() []byte { d := append([]byte(nil), frame...); d[1] = 9; return d }, ErrUnknownFormat},
		{"payload", func() []byte { d := append([]byte(nil), frame...); d[len(d)-1]++; return d }, ErrChecksumMismatch},
		{"truncated payload", func() []byte { return frame[:len(frame)-2] }, ErrIncompleteFrame},
		{"truncated header", func() []byte { return frame[:4] }, ErrIncompleteFrame},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadFrame(bytes.NewReader(tc.data())); err != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestStores(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	stores := map[string]Store{"memory": NewMemoryStore(), "file": fs}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := s.Create(ctx, []byte("one"))
			if err != nil {
				t.Fatalf("creating entry: %v", err)
			}
			other, err := s.Create(ctx, []byte("two"))
			if err != nil {
				t.Fatalf("creating entry: %v", err)
			}
			if id == other {
				t.Errorf("expected distinct ids")
			}
			if err = s.Store(ctx, id, []byte("updated")); err != nil {
				t.Fatalf("storing entry: %v", err)
			}
			data, err := s.Get(ctx, id)
			if err != nil || string(data) != "updated" {
				t.Errorf("expected updated entry, got %q, %v", data, err)
			}
			if err = s.Delete(ctx, id); err != nil {
				t.Fatalf("deleting entry: %v", err)
			}
			data, err = s.Get(ctx, id)
			if err != nil || data != nil {
				t.Errorf("expected deleted entry to be gone, got %q, %v", data, err)
			}
			data, err = s.Get(ctx, other)
			if err != nil || string(data) != "two" {
				t.Errorf("expected untouched entry, got %q, %v", data, err)
			}
		})
	}
}

func TestMemoryStoreCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemoryStore().Create(ctx, []byte("x")); err != context.Canceled {
		t.Errorf("expected cancellation, got %v", err)
	}
}
