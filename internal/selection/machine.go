// Package selection tracks the clipboard of one data control device: which
// offer is still being announced, which one is the confirmed selection, what
// was captured from it, and how that capture is republished when the owning
// client goes away.
package selection

import (
	"errors"
	"os"
	"slices"
	"strings"

	"github.com/labi-le/zzz/internal/history"
	"github.com/labi-le/zzz/internal/notification"
	"github.com/labi-le/zzz/internal/pref"
	"github.com/labi-le/zzz/pkg/ctxlog"
	"github.com/rs/zerolog"
)

// ErrUntrackedOffer is returned when a selection references an offer that
// was never announced, or was already confirmed.
var ErrUntrackedOffer = errors.New("selection: offer was not announced by data_offer")

// Offer is a compositor announcement of clipboard content.
type Offer interface {
	Receive(mime string, fd *os.File)
	Destroy()
}

// Source is a clipboard provider created by us.
type Source interface {
	Destroy()
}

// SourceHandler serves the events of a published Source.
type SourceHandler interface {
	Send(mime string, fd *os.File)
	Cancelled()
}

// Device is the data control device for one seat.
type Device interface {
	// Publish creates a source offering mimes, routes its events to h and
	// makes it the selection.
	Publish(mimes []string, h SourceHandler) Source
	Destroy()
}

// Conn is the display connection.
type Conn interface {
	RoundTrip() error
}

type Options struct {
	// Replace republishes the last capture when the selection is cleared.
	Replace bool

	// Tree selects the representations to capture. When nil the machine
	// runs in single-capture mode: Precedence picks one representation
	// which is written to Store.
	Tree       pref.Node
	Precedence pref.Precedence
	Store      *history.Store

	Notifier notification.Notifier
	Logger   zerolog.Logger
}

// SingleCapture reports whether o selects single-capture mode.
func (o Options) SingleCapture() bool { return o.Tree == nil }

type tracked struct {
	offer Offer
	mimes []string
}

// Machine is the per-device selection state machine. All methods must be
// called from the goroutine dispatching display events.
type Machine struct {
	conn   Conn
	device Device
	opts   Options
	logger zerolog.Logger

	pending *tracked
	current *tracked
	saved   *Clip

	// mimes of the source we last published; the next confirmed offer
	// carrying exactly these is our own content coming back
	echo []string

	finished bool

	// capturing is set while confirmed waits on a round trip. The display
	// dispatches events during that wait; they are held and replayed in
	// order once the capture is done.
	capturing bool
	held      []func() error
}

func New(conn Conn, device Device, opts Options) *Machine {
	if opts.Notifier == nil {
		opts.Notifier = notification.NullNotifier{}
	}
	if opts.SingleCapture() && opts.Store == nil {
		panic("selection: single-capture mode needs a history store")
	}

	return &Machine{
		conn:   conn,
		device: device,
		opts:   opts,
		logger: ctxlog.Component(opts.Logger, "selection"),
	}
}

// Saved returns the capture currently owned by the machine, if any.
func (m *Machine) Saved() *Clip { return m.saved }

// PendingMimes returns the MIME types announced so far for the pending
// offer.
func (m *Machine) PendingMimes() []string {
	if m.pending == nil {
		return nil
	}
	return m.pending.mimes
}

// DataOffer starts tracking a newly announced offer, dropping any earlier
// offer that was never confirmed.
func (m *Machine) DataOffer(offer Offer) {
	if m.hold(func() error { m.DataOffer(offer); return nil }) {
		return
	}
	if m.finished || offer == nil {
		return
	}
	if m.pending != nil {
		m.logger.Trace().Msg("replacing unconfirmed offer")
		m.pending.offer.Destroy()
	}
	m.pending = &tracked{offer: offer}
}

// OfferMime records one advertised MIME type of offer.
func (m *Machine) OfferMime(offer Offer, mime string) {
	if m.hold(func() error { m.OfferMime(offer, mime); return nil }) {
		return
	}
	if m.pending == nil || m.pending.offer != offer {
		return
	}
	m.pending.mimes = append(m.pending.mimes, mime)
}

// Selection handles the selection event. A nil offer means the clipboard
// was cleared. The returned error is fatal to the session.
func (m *Machine) Selection(offer Offer) error {
	if m.hold(func() error { return m.Selection(offer) }) {
		return nil
	}
	if m.finished {
		return nil
	}
	if offer == nil {
		m.dropCurrent()
		return m.cleared()
	}

	if m.pending == nil || m.pending.offer != offer {
		return ErrUntrackedOffer
	}

	confirmed := m.pending
	m.pending = nil
	m.dropCurrent()
	m.current = confirmed

	m.capturing = true
	err := m.confirmed(confirmed)
	m.capturing = false
	if err != nil {
		m.held = nil
		return err
	}
	return m.replay()
}

// PrimarySelection releases offers meant for the primary selection; their
// content is never captured.
func (m *Machine) PrimarySelection(offer Offer) {
	if m.hold(func() error { m.PrimarySelection(offer); return nil }) {
		return
	}
	if m.finished || offer == nil {
		return
	}
	if m.pending != nil && m.pending.offer == offer {
		m.pending = nil
	}
	if m.current != nil && m.current.offer == offer {
		return
	}
	offer.Destroy()
}

// Finished handles the device finished event.
func (m *Machine) Finished() {
	m.teardown("finished")
}

// Teardown destroys the device after its seat or manager went away. Later
// events, including finished, are ignored.
func (m *Machine) Teardown() {
	m.teardown("global removed")
}

func (m *Machine) teardown(reason string) {
	if m.hold(func() error { m.teardown(reason); return nil }) {
		return
	}
	if m.finished {
		return
	}
	m.finished = true

	m.device.Destroy()
	if m.pending != nil {
		m.pending.offer.Destroy()
		m.pending = nil
	}
	m.dropCurrent()
	m.saved = nil
	m.echo = nil

	m.logger.Debug().Str("reason", reason).Msg("device torn down")
}

func (m *Machine) hold(ev func() error) bool {
	if !m.capturing {
		return false
	}
	m.held = append(m.held, ev)
	return true
}

// replay runs held events in arrival order. A replayed selection may capture
// and hold more events; those join the same queue.
func (m *Machine) replay() error {
	for len(m.held) > 0 {
		ev := m.held[0]
		m.held = m.held[1:]
		if err := ev(); err != nil {
			m.held = nil
			return err
		}
	}
	return nil
}

func (m *Machine) dropCurrent() {
	if m.current != nil {
		m.current.offer.Destroy()
		m.current = nil
	}
}

func (m *Machine) confirmed(t *tracked) error {
	log := ctxlog.Op(m.logger, "selection.confirmed")

	if m.echo != nil {
		echo := m.echo
		m.echo = nil
		if slices.Equal(echo, t.mimes) {
			log.Trace().Strs("available_mimes", t.mimes).Msg("own source echoed back, not capturing")
			return nil
		}
	}

	if m.opts.SingleCapture() {
		return m.captureSingle(t)
	}

	selected := m.opts.Tree.Select(t.mimes)
	if len(selected) == 0 {
		log.Info().
			Strs("available_mimes", t.mimes).
			Msg("no MIME type matches the preference tree, nothing to capture")
		return nil
	}

	clip, err := m.captureAll(t.offer, selected)
	if err != nil {
		return err
	}
	if len(clip.Items) == 0 {
		log.Warn().Strs("selected", selected).Msg("every transfer failed, keeping previous capture")
		return nil
	}

	m.saved = clip
	log.Debug().EmbedObject(clip).Msg("selection captured")
	return nil
}

func (m *Machine) captureSingle(t *tracked) error {
	log := ctxlog.Op(m.logger, "selection.captureSingle")

	mime, ok := m.opts.Precedence.Best(t.mimes)
	if !ok {
		log.Info().Strs("available_mimes", t.mimes).Msg("no ranked MIME type offered, ignoring")
		return nil
	}

	data, err := m.receive(t.offer, mime)
	if err != nil {
		if isFatal(err) {
			return err
		}
		log.Error().Err(err).Str("mime", mime).Msg("failed to capture selection")
		return nil
	}

	seq, err := m.opts.Store.Append(mime, data)
	if err != nil {
		log.Error().Err(err).Str("mime", mime).Msg("failed to persist selection, continuing without it")
		return nil
	}

	log = ctxlog.Seq(log, seq)
	log.Debug().Str("mime", mime).Msg("selection stored")
	return nil
}

// cleared republishes the last capture in replace mode.
func (m *Machine) cleared() error {
	log := ctxlog.Op(m.logger, "selection.cleared")

	if !m.opts.Replace {
		log.Trace().Msg("selection cleared")
		return nil
	}

	var clip *Clip
	if m.opts.SingleCapture() {
		entry, err := m.opts.Store.Latest()
		if err != nil {
			log.Debug().Err(err).Msg("nothing stored to restore")
			return nil
		}
		clip = &Clip{Items: []Item{{Mime: entry.Mime, Data: entry.Data}}}
	} else {
		if m.saved == nil {
			log.Debug().Msg("nothing captured to restore")
			return nil
		}
		clip, m.saved = m.saved, nil
	}

	m.publish(clip)
	return nil
}

func (m *Machine) publish(clip *Clip) {
	replayer := NewReplayer(clip, m.logger)
	replayer.Bind(m.device.Publish(clip.Mimes(), replayer))
	m.echo = clip.Mimes()

	m.logger.Info().EmbedObject(clip).Msg("selection restored")
	m.opts.Notifier.Notify("Clipboard restored: %s", strings.Join(clip.Kinds(), ", "))
}

type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func isFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
