package selection

import (
	"github.com/dustin/go-humanize"
	"github.com/labi-le/zzz/pkg/mime"
	"github.com/rs/zerolog"
)

// Item is one captured representation.
type Item struct {
	Mime string
	Data []byte
}

// Clip is every representation captured from one confirmed offer, in
// capture order. A Clip has a single owner: the machine until it is
// republished, then the Replayer serving it.
type Clip struct {
	Items []Item
}

func (c *Clip) Mimes() []string {
	mimes := make([]string, len(c.Items))
	for i, it := range c.Items {
		mimes[i] = it.Mime
	}
	return mimes
}

// Lookup returns the payload stored under exactly mimeType.
func (c *Clip) Lookup(mimeType string) ([]byte, bool) {
	for _, it := range c.Items {
		if it.Mime == mimeType {
			return it.Data, true
		}
	}
	return nil, false
}

func (c *Clip) Has(mimeType string) bool {
	_, ok := c.Lookup(mimeType)
	return ok
}

func (c *Clip) Size() int {
	var n int
	for _, it := range c.Items {
		n += len(it.Data)
	}
	return n
}

// Kinds summarizes the clip as coarse content kinds such as "image" or
// "text".
func (c *Clip) Kinds() []string {
	return mime.Kinds(c.Mimes())
}

func (c *Clip) MarshalZerologObject(e *zerolog.Event) {
	e.Strs("mimes", c.Mimes())
	e.Strs("kinds", c.Kinds())
	e.Str("size", humanize.Bytes(uint64(c.Size())))
}
