package history_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/labi-le/zzz/internal/history"
	"github.com/rs/zerolog"
)

func seed(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("text/plain\nx"), 0o600); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
}

func TestOpen_ContinuesAfterExistingEntries(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		seed(t, dir, strconv.Itoa(i))
	}

	s := history.Open(dir, zerolog.Nop())
	seq, err := s.Append("text/plain", []byte("hello"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if seq != 5 {
		t.Errorf("first append after restart wrote %d, want 5", seq)
	}
	if _, err := os.Stat(filepath.Join(dir, "5")); err != nil {
		t.Errorf("file 5 not created: %v", err)
	}
}

func TestOpen_IgnoresNonNumericNames(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, "3", "notes.txt", "12abc", "-1", "7")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o700); err != nil {
		t.Fatal(err)
	}

	if got := history.Open(dir, zerolog.Nop()).Next(); got != 8 {
		t.Errorf("Next() = %d, want 8", got)
	}
}

func TestOpen_CreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state", "zzz_clip")

	s := history.Open(dir, zerolog.Nop())
	if s.Next() != 0 {
		t.Errorf("Next() = %d, want 0", s.Next())
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("directory permissions = %o, want 700", perm)
	}
}

func TestAppend_FormatAndGet(t *testing.T) {
	dir := t.TempDir()
	s := history.Open(dir, zerolog.Nop())

	payload := []byte("line one\nline two\n")
	seq, err := s.Append("text/plain;charset=utf-8", payload)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, strconv.FormatUint(seq, 10)))
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if diff := cmp.Diff("text/plain;charset=utf-8\nline one\nline two\n", string(raw)); diff != "" {
		t.Errorf("on-disk format mismatch (-want +got):\n%s", diff)
	}

	got, err := s.Get(seq)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := history.Entry{Seq: seq, Mime: "text/plain;charset=utf-8", Data: payload}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
}

func TestAppend_SequenceStrictlyIncreases(t *testing.T) {
	s := history.Open(t.TempDir(), zerolog.Nop())

	var prev uint64
	for i := 0; i < 10; i++ {
		seq, err := s.Append("text/plain", []byte(strconv.Itoa(i)))
		if err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
		if i > 0 && seq <= prev {
			t.Fatalf("sequence did not increase: %d after %d", seq, prev)
		}
		prev = seq
	}
}

func TestAppend_SkipsConsecutiveDuplicate(t *testing.T) {
	dir := t.TempDir()
	s := history.Open(dir, zerolog.Nop())

	first, err := s.Append("text/plain", []byte("same"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Append("text/plain", []byte("same"))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("duplicate got new sequence %d, want %d", second, first)
	}

	third, err := s.Append("text/html", []byte("same"))
	if err != nil {
		t.Fatal(err)
	}
	if third != first+1 {
		t.Errorf("different mime got sequence %d, want %d", third, first+1)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("%d files on disk, want 2", len(entries))
	}
}

func TestAppend_DegradedWhenDirectoryUncreatable(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	s := history.Open(filepath.Join(blocker, "zzz_clip"), zerolog.Nop())
	if _, err := s.Append("text/plain", []byte("x")); err == nil {
		t.Fatal("Append into uncreatable directory succeeded")
	}
	if s.Next() != 0 {
		t.Errorf("failed append advanced the counter to %d", s.Next())
	}
}

func TestGet_Missing(t *testing.T) {
	s := history.Open(t.TempDir(), zerolog.Nop())
	if _, err := s.Get(42); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_Corrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0"), []byte("no newline here"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := history.Open(dir, zerolog.Nop())
	if _, err := s.Get(0); !errors.Is(err, history.ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestLatest(t *testing.T) {
	s := history.Open(t.TempDir(), zerolog.Nop())
	if _, err := s.Latest(); !errors.Is(err, history.ErrEmpty) {
		t.Fatalf("expected ErrEmpty on empty store, got %v", err)
	}

	for _, text := range []string{"a", "b", "c"} {
		if _, err := s.Append("text/plain", []byte(text)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if got.Seq != 2 || string(got.Data) != "c" {
		t.Errorf("Latest = seq %d %q, want seq 2 %q", got.Seq, got.Data, "c")
	}
}

func TestRead_DoesNotCreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")

	if _, err := history.Read(dir, 0); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read created %s", dir)
	}

	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	seed(t, dir, "7")
	got, err := history.Read(dir, 7)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := cmp.Diff(history.Entry{Seq: 7, Mime: "text/plain", Data: []byte("x")}, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestOpen_IgnoresLastPossibleSequence(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, "3", strconv.FormatUint(math.MaxUint64, 10))

	s := history.Open(dir, zerolog.Nop())
	if s.Next() != 4 {
		t.Errorf("Next() = %d, want 4", s.Next())
	}
}

func TestAppend_RefusesToWrapAround(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, strconv.FormatUint(math.MaxUint64-1, 10))

	s := history.Open(dir, zerolog.Nop())
	if s.Next() != math.MaxUint64 {
		t.Fatalf("Next() = %d, want MaxUint64", s.Next())
	}

	if _, err := s.Append("text/plain", []byte("x")); !errors.Is(err, history.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "0")); !errors.Is(err, os.ErrNotExist) {
		t.Error("append wrapped around to entry 0")
	}
}
