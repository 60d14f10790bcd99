package selection

import (
	"os"

	"github.com/labi-le/zzz/pkg/ctxlog"
	"github.com/labi-le/zzz/pkg/pipe"
	"github.com/rs/zerolog"
)

// Replayer serves a Clip through a published Source until the source is
// cancelled. It owns the clip from then on.
type Replayer struct {
	clip   *Clip
	source Source
	logger zerolog.Logger

	// OnCancel runs after the source is destroyed.
	OnCancel func()
}

func NewReplayer(clip *Clip, logger zerolog.Logger) *Replayer {
	return &Replayer{
		clip:   clip,
		logger: ctxlog.Component(logger, "replayer"),
	}
}

// Bind attaches the source that Cancelled destroys.
func (r *Replayer) Bind(source Source) {
	r.source = source
}

// Active reports whether the replayer still serves its clip.
func (r *Replayer) Active() bool { return r.clip != nil }

// Send writes the stored payload for exactly mime to fd, or nothing when mime
// was not captured. The payload is written once; a short write is not
// retried.
func (r *Replayer) Send(mime string, fd *os.File) {
	defer fd.Close()
	log := ctxlog.Op(r.logger, "replayer.Send")

	if r.clip == nil {
		return
	}
	data, ok := r.clip.Lookup(mime)
	if !ok {
		log.Debug().Str("mime", mime).Msg("requested representation was not captured")
		return
	}

	n, err := pipe.WriteOnce(fd, data)
	if err != nil {
		if !pipe.IsExpectedWriteError(err) {
			log.Warn().Err(err).Str("mime", mime).Msg("write failed")
		}
		return
	}
	if n < len(data) {
		log.Warn().
			Str("mime", mime).
			Int("written", n).
			Int("size", len(data)).
			Msg("short write, payload truncated")
	}
}

func (r *Replayer) Cancelled() {
	r.logger.Trace().Msg("source cancelled")
	r.clip = nil
	if r.source != nil {
		r.source.Destroy()
		r.source = nil
	}
	if r.OnCancel != nil {
		r.OnCancel()
	}
}
