package pipe_test

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/labi-le/zzz/pkg/pipe"
)

func randomPayload(size int) []byte {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	buf := make([]byte, size)
	r.Read(buf)
	return buf
}

func TestPipe_ReadAll(t *testing.T) {
	sizes := []struct {
		name string
		size int
	}{
		{"Empty", 0},
		{"Tiny_1KB", 1 << 10},
		{"Small_64KB", 1 << 16},
		{"Medium_512KB", 1 << 19},
		{"Large_4MB", 1 << 22},
	}

	for _, sz := range sizes {
		t.Run(sz.name, func(t *testing.T) {
			p, err := pipe.New()
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer p.Close()

			want := randomPayload(sz.size)
			done := make(chan error, 1)
			go func() {
				_, err := p.Fd().Write(want)
				if cerr := p.CloseWrite(); err == nil {
					err = cerr
				}
				done <- err
			}()

			got, err := p.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if err := <-done; err != nil {
				t.Fatalf("writer failed: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("payload mismatch: got %d bytes, want %d", len(got), len(want))
			}
		})
	}
}

func TestFromPipe_NilFd(t *testing.T) {
	if _, err := pipe.FromPipe(0); !errors.Is(err, pipe.ErrNilPipe) {
		t.Errorf("expected ErrNilPipe, got %v", err)
	}
}

func TestPipe_CloseAfterCloseWrite(t *testing.T) {
	p, err := pipe.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := p.CloseWrite(); err != nil {
		t.Fatalf("CloseWrite failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close after CloseWrite returned %v", err)
	}
}
