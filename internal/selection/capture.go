package selection

import (
	"fmt"

	"github.com/labi-le/zzz/pkg/ctxlog"
	"github.com/labi-le/zzz/pkg/pipe"
)

// receive pulls one representation of offer. The round trip makes sure the
// compositor has forwarded the request before we block on the pipe.
func (m *Machine) receive(offer Offer, mime string) ([]byte, error) {
	p, err := pipe.New()
	if err != nil {
		return nil, err
	}
	defer p.Close()

	offer.Receive(mime, p.Fd())
	if err := p.CloseWrite(); err != nil {
		return nil, fmt.Errorf("close write end: %w", err)
	}

	if err := m.conn.RoundTrip(); err != nil {
		return nil, &fatalError{fmt.Errorf("round trip: %w", err)}
	}

	data, err := p.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", mime, err)
	}
	return data, nil
}

// captureAll receives every mime in order, skipping repeats and
// representations that fail to transfer.
func (m *Machine) captureAll(offer Offer, mimes []string) (*Clip, error) {
	log := ctxlog.Op(m.logger, "selection.captureAll")

	clip := new(Clip)
	for _, mime := range mimes {
		if clip.Has(mime) {
			continue
		}

		data, err := m.receive(offer, mime)
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			log.Error().Err(err).Str("mime", mime).Msg("failed to capture representation")
			continue
		}

		log.Trace().
			Str("mime", mime).
			Int("bytes_read", len(data)).
			Msg("read data from pipe")

		clip.Items = append(clip.Items, Item{Mime: mime, Data: data})
	}
	return clip, nil
}
