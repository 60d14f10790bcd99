// Package history keeps captured selections as a directory of files named by
// a decimal sequence number. Each file holds the MIME type, a newline and the
// raw payload.
package history

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/labi-le/zzz/pkg/ctxlog"
	"github.com/rs/zerolog"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

var (
	ErrNotFound  = errors.New("history: entry not found")
	ErrEmpty     = errors.New("history: no entries")
	ErrCorrupt   = errors.New("history: entry has no mime header")
	ErrExhausted = errors.New("history: sequence numbers exhausted")
)

// Entry is one stored selection.
type Entry struct {
	Seq  uint64
	Mime string
	Data []byte
}

func (e Entry) MarshalZerologObject(ev *zerolog.Event) {
	ev.Uint64("seq", e.Seq)
	ev.Str("mime", e.Mime)
	ev.Str("size", humanize.Bytes(uint64(len(e.Data))))
}

// Store appends entries under increasing sequence numbers. It is not safe
// for concurrent use.
type Store struct {
	dir    string
	next   uint64
	dedup  Deduplicator
	logger zerolog.Logger
}

// Open scans dir for the highest existing sequence number. A missing or
// unreadable directory is not fatal: the store starts at zero and every
// Append retries creating the directory.
func Open(dir string, logger zerolog.Logger) *Store {
	s := &Store{
		dir:    dir,
		logger: ctxlog.Component(logger, "history"),
	}
	log := ctxlog.Op(s.logger, "history.Open")

	if err := s.ensureDir(); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("history directory unavailable, persistence degraded")
	}

	if last, ok := s.scan(); ok {
		s.next = last + 1
	}

	log.Debug().
		Str("dir", dir).
		Uint64("next_seq", s.next).
		Msg("history opened")

	return s
}

func (s *Store) Dir() string { return s.dir }

// Next is the sequence number the following Append will use.
func (s *Store) Next() uint64 { return s.next }

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("history mkdir: %w", err)
	}
	return nil
}

func (s *Store) scan() (uint64, bool) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, false
	}

	var (
		last  uint64
		found bool
	)
	for _, e := range entries {
		seq, ok := parseSeq(e.Name())
		if !ok {
			continue
		}
		if !found || seq > last {
			last, found = seq, true
		}
	}
	return last, found
}

// parseSeq rejects math.MaxUint64: no entry can follow it.
func parseSeq(name string) (uint64, bool) {
	seq, err := strconv.ParseUint(name, 10, 64)
	return seq, err == nil && seq != math.MaxUint64
}

func (s *Store) path(seq uint64) string {
	return filepath.Join(s.dir, strconv.FormatUint(seq, 10))
}

// Append writes a new entry and returns its sequence number. An entry
// identical to the previous Append of this process is not written again; the
// earlier sequence number is returned instead.
func (s *Store) Append(mime string, data []byte) (uint64, error) {
	log := ctxlog.Op(s.logger, "history.Append")

	hash, fresh := s.dedup.Check(mime, data)
	if !fresh {
		log.Trace().
			Uint64("hash", hash).
			Uint64("seq", s.next-1).
			Msg("identical to previous entry, skipping")
		return s.next - 1, nil
	}

	if s.next == math.MaxUint64 {
		s.dedup.Reset()
		return 0, ErrExhausted
	}

	if err := s.ensureDir(); err != nil {
		s.dedup.Reset()
		return 0, err
	}

	seq := s.next
	f, err := os.OpenFile(s.path(seq), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		s.dedup.Reset()
		return 0, fmt.Errorf("history create entry: %w", err)
	}

	w := bufio.NewWriter(f)
	_, _ = w.WriteString(mime)
	_ = w.WriteByte('\n')
	_, _ = w.Write(data)
	err = w.Flush()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(s.path(seq))
		s.dedup.Reset()
		return 0, fmt.Errorf("history write entry: %w", err)
	}

	s.next++

	log.Debug().
		EmbedObject(Entry{Seq: seq, Mime: mime, Data: data}).
		Uint64("hash", hash).
		Msg("entry stored")

	return seq, nil
}

// Get reads the entry with the given sequence number.
func (s *Store) Get(seq uint64) (Entry, error) {
	raw, err := os.ReadFile(s.path(seq))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, seq)
		}
		return Entry{}, fmt.Errorf("history read entry %d: %w", seq, err)
	}

	return decode(seq, raw)
}

// Read loads one entry from dir without opening a Store, so the directory is
// never created.
func Read(dir string, seq uint64) (Entry, error) {
	return (&Store{dir: dir}).Get(seq)
}

// Latest returns the newest entry on disk.
func (s *Store) Latest() (Entry, error) {
	last, ok := s.scan()
	if !ok {
		return Entry{}, ErrEmpty
	}
	return s.Get(last)
}

func decode(seq uint64, raw []byte) (Entry, error) {
	i := bytes.IndexByte(raw, '\n')
	if i < 0 {
		return Entry{}, fmt.Errorf("%w: %d", ErrCorrupt, seq)
	}
	return Entry{
		Seq:  seq,
		Mime: string(raw[:i]),
		Data: raw[i+1:],
	}, nil
}
