package session

import (
	"testing"

	wl "deedles.dev/wl/client"
	"github.com/google/go-cmp/cmp"
	"github.com/labi-le/zzz/internal/selection"
	"github.com/labi-le/zzz/pkg/wlr"
	"github.com/rs/zerolog"
)

type fakeSeat struct {
	version  uint32
	released int
}

func (s *fakeSeat) Release() { s.released++ }

type fakeManager struct {
	version   uint32
	destroyed int
}

func (m *fakeManager) Destroy() { m.destroyed++ }

type fakeHandler struct {
	teardowns int
	finished  int
}

func (h *fakeHandler) DataOffer(selection.Offer)         {}
func (h *fakeHandler) OfferMime(selection.Offer, string) {}
func (h *fakeHandler) Selection(selection.Offer) error   { return nil }
func (h *fakeHandler) PrimarySelection(selection.Offer)  {}
func (h *fakeHandler) Finished()                         { h.finished++ }
func (h *fakeHandler) Teardown()                         { h.teardowns++ }

type binder struct {
	seats    []*fakeSeat
	managers []*fakeManager
	devices  []*fakeHandler
}

func newTestSession() (*Session, *binder) {
	b := new(binder)
	s := &Session{logger: zerolog.Nop()}
	s.bindSeat = func(_, version uint32) seatHandle {
		seat := &fakeSeat{version: version}
		b.seats = append(b.seats, seat)
		return seat
	}
	s.bindManager = func(_, version uint32) managerHandle {
		mgr := &fakeManager{version: version}
		b.managers = append(b.managers, mgr)
		return mgr
	}
	s.newDevice = func(seatHandle, managerHandle) deviceHandler {
		h := new(fakeHandler)
		b.devices = append(b.devices, h)
		return h
	}
	return s, b
}

type announcement struct {
	name    uint32
	inter   string
	version uint32
}

var (
	seatV5    = announcement{name: 1, inter: wl.SeatInterface, version: 5}
	managerV2 = announcement{name: 2, inter: wlr.ZwlrDataControlManagerV1Interface, version: 2}
)

func TestGlobal_DeviceNeedsBothGlobals(t *testing.T) {
	tests := []struct {
		name    string
		globals []announcement
		devices int
	}{
		{"SeatThenManager", []announcement{seatV5, managerV2}, 1},
		{"ManagerThenSeat", []announcement{managerV2, seatV5}, 1},
		{"SeatOnly", []announcement{seatV5}, 0},
		{"ManagerOnly", []announcement{managerV2}, 0},
		{"UnrelatedIgnored", []announcement{{name: 9, inter: "wl_output", version: 4}, seatV5, managerV2}, 1},
		{"SecondSeatIgnored", []announcement{seatV5, managerV2, {name: 3, inter: wl.SeatInterface, version: 5}}, 1},
		{"SeatBelowMinimum", []announcement{{name: 1, inter: wl.SeatInterface, version: 0}, managerV2}, 0},
		{"ManagerBelowMinimum", []announcement{seatV5, {name: 2, inter: wlr.ZwlrDataControlManagerV1Interface, version: 0}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, b := newTestSession()
			for _, g := range tt.globals {
				s.Global(g.name, g.inter, g.version)
			}
			if len(b.devices) != tt.devices {
				t.Errorf("created %d devices, want %d", len(b.devices), tt.devices)
			}
		})
	}
}

func TestGlobal_VersionsCapped(t *testing.T) {
	s, b := newTestSession()
	s.Global(1, wl.SeatInterface, 9)
	s.Global(2, wlr.ZwlrDataControlManagerV1Interface, 7)

	got := []uint32{b.seats[0].version, b.managers[0].version}
	if diff := cmp.Diff([]uint32{seatMaxVersion, managerMaxVersion}, got); diff != "" {
		t.Errorf("bound versions mismatch (-want +got):\n%s", diff)
	}
}

func TestGlobalRemove(t *testing.T) {
	tests := []struct {
		name         string
		seatVersion  uint32
		remove       []uint32
		teardowns    int
		seatReleased int
		mgrDestroyed int
	}{
		{name: "Seat", seatVersion: 5, remove: []uint32{1}, teardowns: 1, seatReleased: 1},
		{name: "SeatWithoutRelease", seatVersion: 4, remove: []uint32{1}, teardowns: 1},
		{name: "Manager", seatVersion: 5, remove: []uint32{2}, teardowns: 1, mgrDestroyed: 1},
		{name: "Both", seatVersion: 5, remove: []uint32{1, 2}, teardowns: 1, seatReleased: 1, mgrDestroyed: 1},
		{name: "Twice", seatVersion: 5, remove: []uint32{1, 1}, teardowns: 1, seatReleased: 1},
		{name: "Unknown", seatVersion: 5, remove: []uint32{42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, b := newTestSession()
			s.Global(1, wl.SeatInterface, tt.seatVersion)
			s.Global(2, wlr.ZwlrDataControlManagerV1Interface, 2)

			for _, name := range tt.remove {
				s.GlobalRemove(name)
			}

			if got := b.devices[0].teardowns; got != tt.teardowns {
				t.Errorf("teardowns = %d, want %d", got, tt.teardowns)
			}
			if got := b.seats[0].released; got != tt.seatReleased {
				t.Errorf("seat released %d times, want %d", got, tt.seatReleased)
			}
			if got := b.managers[0].destroyed; got != tt.mgrDestroyed {
				t.Errorf("manager destroyed %d times, want %d", got, tt.mgrDestroyed)
			}
		})
	}
}

func TestGlobal_DeviceRecreatedWhenGlobalsReturn(t *testing.T) {
	s, b := newTestSession()
	s.Global(seatV5.name, seatV5.inter, seatV5.version)
	s.Global(managerV2.name, managerV2.inter, managerV2.version)

	stale := &deviceEvents{session: s, handler: s.machine}

	s.GlobalRemove(seatV5.name)
	s.Global(7, wl.SeatInterface, 5)

	if len(b.devices) != 2 {
		t.Fatalf("created %d devices, want 2", len(b.devices))
	}
	if s.machine != b.devices[1] {
		t.Fatal("session does not route events to the new device")
	}

	stale.Finished()
	if s.machine != b.devices[1] {
		t.Error("finished of the removed device detached the new one")
	}
	if b.devices[1].teardowns != 0 {
		t.Error("new device torn down by the old one's finished")
	}

	s.GlobalRemove(7)
	if b.devices[1].teardowns != 1 {
		t.Errorf("new device teardowns = %d, want 1", b.devices[1].teardowns)
	}
}

func TestDeviceEvents_FinishedDetachesDevice(t *testing.T) {
	s, b := newTestSession()
	s.Global(seatV5.name, seatV5.inter, seatV5.version)
	s.Global(managerV2.name, managerV2.inter, managerV2.version)

	events := &deviceEvents{session: s, handler: s.machine}
	events.Finished()

	if s.machine != nil {
		t.Fatal("finished device still attached")
	}

	s.GlobalRemove(seatV5.name)
	if b.devices[0].teardowns != 0 {
		t.Error("global removal tore down a device that already finished")
	}
	if b.devices[0].finished != 1 {
		t.Errorf("finished forwarded %d times, want 1", b.devices[0].finished)
	}
}
