// Package session owns the display connection: it binds the seat and the
// data control manager as the compositor announces them, creates the data
// device once both exist and drives the event loop that feeds the selection
// machine.
package session

import (
	"context"
	"errors"
	"fmt"

	wl "deedles.dev/wl/client"
	"github.com/labi-le/zzz/internal/selection"
	"github.com/labi-le/zzz/pkg/ctxlog"
	"github.com/labi-le/zzz/pkg/wlr"
	"github.com/rs/zerolog"
)

const (
	seatMinVersion    = 1
	seatMaxVersion    = 5
	managerMinVersion = 1
	managerMaxVersion = wlr.ZwlrDataControlManagerV1Version

	// wl_seat.release
	seatReleaseSince = 5
)

// ErrDone stops Run without an error. Pass it to Session.Stop.
var ErrDone = errors.New("session: done")

// Options configure what happens on the data device.
type Options struct {
	// Selection configures the machine attached to every device. When nil
	// the device is not watched: offers are released as they arrive.
	Selection *selection.Options

	// Ready runs once for every device created.
	Ready func(dev selection.Device)

	Logger zerolog.Logger
}

type global struct {
	name    uint32
	version uint32
}

type seatHandle interface {
	Release()
}

type managerHandle interface {
	Destroy()
}

// Session is the registry binder and event loop for one display connection.
// It is not safe for concurrent use; everything runs on the goroutine that
// calls Run.
type Session struct {
	client   *wl.Client
	registry *wl.Registry
	opts     Options
	logger   zerolog.Logger

	seat        seatHandle
	seatGlobal  global
	manager     managerHandle
	managerName uint32

	// handles the events of the current device; nil while there is none
	machine deviceHandler

	bindSeat    func(name, version uint32) seatHandle
	bindManager func(name, version uint32) managerHandle
	newDevice   func(seat seatHandle, manager managerHandle) deviceHandler

	err error
}

// Dial connects to the display named by the environment.
func Dial(opts Options) (*Session, error) {
	client, err := wl.Dial()
	if err != nil {
		return nil, fmt.Errorf("connect to display: %w", err)
	}
	return New(client, opts), nil
}

func New(client *wl.Client, opts Options) *Session {
	s := &Session{
		client: client,
		opts:   opts,
		logger: ctxlog.Component(opts.Logger, "session"),
	}
	s.bindSeat = func(name, version uint32) seatHandle {
		return wl.BindSeat(s.client, s.registry, name, version)
	}
	s.bindManager = func(name, version uint32) managerHandle {
		return wlr.BindZwlrDataControlManagerV1(s.client, s.registry, name, version)
	}
	s.newDevice = s.createDevice
	return s
}

// Stop makes Run return err after the current dispatch step. Only the first
// call has an effect.
func (s *Session) Stop(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) Global(name uint32, inter string, version uint32) {
	log := ctxlog.Op(s.logger, "session.Global")

	switch inter {
	case wl.SeatInterface:
		if s.seat != nil {
			log.Trace().Uint32("name", name).Msg("ignoring additional seat")
			return
		}
		if version < seatMinVersion {
			log.Warn().Uint32("version", version).Msg("seat version too old")
			return
		}
		version = min(version, seatMaxVersion)
		s.seat = s.bindSeat(name, version)
		s.seatGlobal = global{name: name, version: version}
		log.Trace().Uint32("name", name).Uint32("version", version).Msg("bound seat")

	case wlr.ZwlrDataControlManagerV1Interface:
		if s.manager != nil {
			return
		}
		if version < managerMinVersion {
			log.Warn().Uint32("version", version).Msg("data control manager version too old")
			return
		}
		version = min(version, managerMaxVersion)
		s.manager = s.bindManager(name, version)
		s.managerName = name
		log.Trace().Uint32("name", name).Uint32("version", version).Msg("bound data control manager")

	default:
		return
	}

	if s.machine == nil && s.seat != nil && s.manager != nil {
		s.machine = s.newDevice(s.seat, s.manager)
	}
}

func (s *Session) GlobalRemove(name uint32) {
	log := ctxlog.Op(s.logger, "session.GlobalRemove")

	switch {
	case s.seat != nil && name == s.seatGlobal.name:
		s.teardownDevice()
		if s.seatGlobal.version >= seatReleaseSince {
			s.seat.Release()
		}
		s.seat = nil
		log.Debug().Uint32("name", name).Msg("seat removed")

	case s.manager != nil && name == s.managerName:
		s.teardownDevice()
		s.manager.Destroy()
		s.manager = nil
		log.Debug().Uint32("name", name).Msg("data control manager removed")
	}
}

func (s *Session) createDevice(seat seatHandle, manager managerHandle) deviceHandler {
	mgr := manager.(*wlr.ZwlrDataControlManagerV1)
	dev := &device{manager: mgr, device: mgr.GetDataDevice(seat.(*wl.Seat))}

	var handler deviceHandler
	if s.opts.Selection != nil {
		handler = selection.New(s.client, dev, *s.opts.Selection)
	} else {
		handler = &discard{device: dev}
	}
	dev.device.Listener = &deviceEvents{session: s, handler: handler}

	s.logger.Debug().Stringer("device", dev.device).Msg("data device created")

	if s.opts.Ready != nil {
		s.opts.Ready(dev)
	}
	return handler
}

func (s *Session) teardownDevice() {
	if s.machine == nil {
		return
	}
	s.machine.Teardown()
	s.machine = nil
}

// Run binds the globals and dispatches events until ctx is done, the
// connection closes or a handler stops the session.
func (s *Session) Run(ctx context.Context) error {
	log := ctxlog.Op(s.logger, "session.Run")

	s.registry = s.client.Display().GetRegistry()
	s.registry.Listener = s

	if err := s.client.RoundTrip(); err != nil {
		return fmt.Errorf("round trip: %w", err)
	}
	if s.seat == nil {
		log.Warn().Msg("no seat announced yet, waiting")
	}
	if s.manager == nil {
		log.Warn().
			Str("interface", wlr.ZwlrDataControlManagerV1Interface).
			Msg("compositor has not announced the data control manager, waiting")
	}

	for {
		if s.err != nil {
			return s.result()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.client.Events():
			if !ok {
				return s.result()
			}
			if err := ev(); err != nil {
				log.Error().Err(err).Msg("event processing error")
				return err
			}
		}
	}
}

func (s *Session) result() error {
	if errors.Is(s.err, ErrDone) {
		return nil
	}
	return s.err
}

func (s *Session) Close() error {
	return s.client.Close()
}
