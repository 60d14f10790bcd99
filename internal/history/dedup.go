package history

import (
	"github.com/cespare/xxhash"
)

// Deduplicator remembers the hash of the last stored entry.
type Deduplicator struct {
	lastHash uint64
	seen     bool
}

// Check reports the hash of (mime, data) and whether it differs from the
// previous call, recording it as the new last entry.
func (d *Deduplicator) Check(mime string, data []byte) (uint64, bool) {
	h := Hash(mime, data)
	if d.seen && h == d.lastHash {
		return h, false
	}
	d.lastHash, d.seen = h, true
	return h, true
}

func (d *Deduplicator) Reset() {
	d.seen = false
}

func Hash(mime string, data []byte) uint64 {
	digest := xxhash.New()
	_, _ = digest.Write([]byte(mime))
	_, _ = digest.Write([]byte{0})
	_, _ = digest.Write(data)
	return digest.Sum64()
}
