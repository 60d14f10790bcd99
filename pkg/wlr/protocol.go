// Package wlr contains client bindings for wlr-data-control-unstable-v1,
// the privileged clipboard protocol implemented by wlroots compositors.
package wlr

import (
	"fmt"
	"os"

	wl "deedles.dev/wl/client"
	"deedles.dev/wl/wire"
)

const (
	ZwlrDataControlManagerV1Interface = "zwlr_data_control_manager_v1"
	ZwlrDataControlManagerV1Version   = 2
)

// ZwlrDataControlManagerV1 creates per-seat data devices and data sources.
type ZwlrDataControlManagerV1 struct {
	OnDelete func()

	state wire.State
	id    uint32
}

func NewZwlrDataControlManagerV1(state wire.State) *ZwlrDataControlManagerV1 {
	return &ZwlrDataControlManagerV1{state: state}
}

func BindZwlrDataControlManagerV1(state wire.State, registry wire.Binder, name, version uint32) *ZwlrDataControlManagerV1 {
	obj := NewZwlrDataControlManagerV1(state)
	state.Add(obj)
	registry.Bind(name, wire.NewID{Interface: ZwlrDataControlManagerV1Interface, Version: version, ID: obj.ID()})
	return obj
}

func (obj *ZwlrDataControlManagerV1) State() wire.State { return obj.state }

func (obj *ZwlrDataControlManagerV1) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{
		Interface: ZwlrDataControlManagerV1Interface,
		Type:      "event",
		Op:        msg.Op(),
	}
}

func (obj *ZwlrDataControlManagerV1) ID() uint32      { return obj.id }
func (obj *ZwlrDataControlManagerV1) SetID(id uint32) { obj.id = id }

func (obj *ZwlrDataControlManagerV1) Delete() {
	if obj.OnDelete != nil {
		obj.OnDelete()
	}
}

func (obj *ZwlrDataControlManagerV1) String() string {
	return fmt.Sprintf("%v(%v)", ZwlrDataControlManagerV1Interface, obj.id)
}

func (obj *ZwlrDataControlManagerV1) MethodName(uint16) string { return "unknown method" }
func (obj *ZwlrDataControlManagerV1) Interface() string         { return ZwlrDataControlManagerV1Interface }
func (obj *ZwlrDataControlManagerV1) Version() uint32           { return ZwlrDataControlManagerV1Version }

// CreateDataSource asks for a new, empty data source.
func (obj *ZwlrDataControlManagerV1) CreateDataSource() (id *ZwlrDataControlSourceV1) {
	builder := wire.NewMessage(obj, 0)

	id = NewZwlrDataControlSourceV1(obj.state)
	obj.state.Add(id)
	builder.WriteObject(id)

	builder.Method = "create_data_source"
	builder.Args = []any{id}
	obj.state.Enqueue(builder)
	return id
}

// GetDataDevice asks for the data device that controls seat's selection.
func (obj *ZwlrDataControlManagerV1) GetDataDevice(seat *wl.Seat) (id *ZwlrDataControlDeviceV1) {
	builder := wire.NewMessage(obj, 1)

	id = NewZwlrDataControlDeviceV1(obj.state)
	obj.state.Add(id)
	builder.WriteObject(id)
	builder.WriteObject(seat)

	builder.Method = "get_data_device"
	builder.Args = []any{id, seat}
	obj.state.Enqueue(builder)
	return id
}

// Destroy releases the manager. Objects it created stay valid.
func (obj *ZwlrDataControlManagerV1) Destroy() {
	builder := wire.NewMessage(obj, 2)

	builder.Method = "destroy"
	builder.Args = []any{}
	obj.state.Enqueue(builder)
}

const (
	ZwlrDataControlDeviceV1Interface = "zwlr_data_control_device_v1"
	ZwlrDataControlDeviceV1Version   = 2
)

// ZwlrDataControlDeviceV1Listener receives device events. Selection and
// PrimarySelection are called with nil when the selection is cleared.
type ZwlrDataControlDeviceV1Listener interface {
	// DataOffer introduces a new offer. Its MIME types follow as offer
	// events, before the selection event that references it.
	DataOffer(id *ZwlrDataControlOfferV1)
	Selection(id *ZwlrDataControlOfferV1)
	// Finished means the device is no longer valid and must be destroyed.
	Finished()
	PrimarySelection(id *ZwlrDataControlOfferV1)
}

// ZwlrDataControlDeviceV1 manages one seat's selection. It becomes inert
// when the seat is destroyed.
type ZwlrDataControlDeviceV1 struct {
	Listener ZwlrDataControlDeviceV1Listener
	OnDelete func()

	state wire.State
	id    uint32
}

func NewZwlrDataControlDeviceV1(state wire.State) *ZwlrDataControlDeviceV1 {
	return &ZwlrDataControlDeviceV1{state: state}
}

func (obj *ZwlrDataControlDeviceV1) State() wire.State { return obj.state }

// offerArg resolves an offer argument. A zero id is a null offer.
func (obj *ZwlrDataControlDeviceV1) offerArg(id uint32) (*ZwlrDataControlOfferV1, error) {
	if id == 0 {
		return nil, nil
	}
	offer, ok := obj.state.Get(id).(*ZwlrDataControlOfferV1)
	if !ok {
		return nil, fmt.Errorf("%v: unknown offer object %d", obj, id)
	}
	return offer, nil
}

func (obj *ZwlrDataControlDeviceV1) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		id := NewZwlrDataControlOfferV1(obj.state)
		id.SetID(msg.ReadUint())

		obj.state.Add(id)

		if err := msg.Err(); err != nil {
			return err
		}
		if obj.Listener == nil {
			return nil
		}
		obj.Listener.DataOffer(id)
		return nil

	case 1, 3:
		raw := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		offer, err := obj.offerArg(raw)
		if err != nil {
			return err
		}
		if obj.Listener == nil {
			return nil
		}
		if msg.Op() == 1 {
			obj.Listener.Selection(offer)
		} else {
			obj.Listener.PrimarySelection(offer)
		}
		return nil

	case 2:
		if err := msg.Err(); err != nil {
			return err
		}
		if obj.Listener == nil {
			return nil
		}
		obj.Listener.Finished()
		return nil
	}

	return wire.UnknownOpError{
		Interface: ZwlrDataControlDeviceV1Interface,
		Type:      "event",
		Op:        msg.Op(),
	}
}

func (obj *ZwlrDataControlDeviceV1) ID() uint32      { return obj.id }
func (obj *ZwlrDataControlDeviceV1) SetID(id uint32) { obj.id = id }

func (obj *ZwlrDataControlDeviceV1) Delete() {
	if obj.OnDelete != nil {
		obj.OnDelete()
	}
}

func (obj *ZwlrDataControlDeviceV1) String() string {
	return fmt.Sprintf("%v(%v)", ZwlrDataControlDeviceV1Interface, obj.id)
}

func (obj *ZwlrDataControlDeviceV1) MethodName(op uint16) string {
	switch op {
	case 0:
		return "data_offer"
	case 1:
		return "selection"
	case 2:
		return "finished"
	case 3:
		return "primary_selection"
	}
	return "unknown method"
}

func (obj *ZwlrDataControlDeviceV1) Interface() string { return ZwlrDataControlDeviceV1Interface }
func (obj *ZwlrDataControlDeviceV1) Version() uint32   { return ZwlrDataControlDeviceV1Version }

// SetSelection makes source the selection. A source may be used once; nil
// clears the selection.
func (obj *ZwlrDataControlDeviceV1) SetSelection(source *ZwlrDataControlSourceV1) {
	builder := wire.NewMessage(obj, 0)

	builder.WriteObject(source)

	builder.Method = "set_selection"
	builder.Args = []any{source}
	obj.state.Enqueue(builder)
}

func (obj *ZwlrDataControlDeviceV1) Destroy() {
	builder := wire.NewMessage(obj, 1)

	builder.Method = "destroy"
	builder.Args = []any{}
	obj.state.Enqueue(builder)
}

// SetPrimarySelection is ignored by compositors without primary selection
// support.
func (obj *ZwlrDataControlDeviceV1) SetPrimarySelection(source *ZwlrDataControlSourceV1) {
	builder := wire.NewMessage(obj, 2)

	builder.WriteObject(source)

	builder.Method = "set_primary_selection"
	builder.Args = []any{source}
	obj.state.Enqueue(builder)
}

type ZwlrDataControlDeviceV1Error int64

const (
	// source given to set_selection or set_primary_selection was already used before
	ZwlrDataControlDeviceV1ErrorUsedSource ZwlrDataControlDeviceV1Error = 1
)

func (enum ZwlrDataControlDeviceV1Error) String() string {
	switch enum {
	case ZwlrDataControlDeviceV1ErrorUsedSource:
		return "ZwlrDataControlDeviceV1ErrorUsedSource"
	}
	return "<invalid ZwlrDataControlDeviceV1Error>"
}

const (
	ZwlrDataControlSourceV1Interface = "zwlr_data_control_source_v1"
	ZwlrDataControlSourceV1Version   = 1
)

// ZwlrDataControlSourceV1Listener receives source events.
type ZwlrDataControlSourceV1Listener interface {
	// Send asks for the data as mimeType. The receiver owns fd and must
	// close it when done.
	Send(mimeType string, fd *os.File)
	// Cancelled means another source replaced this one. It should be
	// destroyed.
	Cancelled()
}

// ZwlrDataControlSourceV1 is the providing side of a transfer.
type ZwlrDataControlSourceV1 struct {
	Listener ZwlrDataControlSourceV1Listener
	OnDelete func()

	state wire.State
	id    uint32
}

func NewZwlrDataControlSourceV1(state wire.State) *ZwlrDataControlSourceV1 {
	return &ZwlrDataControlSourceV1{state: state}
}

func (obj *ZwlrDataControlSourceV1) State() wire.State { return obj.state }

func (obj *ZwlrDataControlSourceV1) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		mimeType := msg.ReadString()
		fd := msg.ReadFile()

		if err := msg.Err(); err != nil {
			return err
		}
		if obj.Listener == nil {
			_ = fd.Close()
			return nil
		}
		obj.Listener.Send(mimeType, fd)
		return nil

	case 1:
		if err := msg.Err(); err != nil {
			return err
		}
		if obj.Listener == nil {
			return nil
		}
		obj.Listener.Cancelled()
		return nil
	}

	return wire.UnknownOpError{
		Interface: ZwlrDataControlSourceV1Interface,
		Type:      "event",
		Op:        msg.Op(),
	}
}

func (obj *ZwlrDataControlSourceV1) ID() uint32      { return obj.id }
func (obj *ZwlrDataControlSourceV1) SetID(id uint32) { obj.id = id }

func (obj *ZwlrDataControlSourceV1) Delete() {
	if obj.OnDelete != nil {
		obj.OnDelete()
	}
}

func (obj *ZwlrDataControlSourceV1) String() string {
	return fmt.Sprintf("%v(%v)", ZwlrDataControlSourceV1Interface, obj.id)
}

func (obj *ZwlrDataControlSourceV1) MethodName(op uint16) string {
	switch op {
	case 0:
		return "send"
	case 1:
		return "cancelled"
	}
	return "unknown method"
}

func (obj *ZwlrDataControlSourceV1) Interface() string { return ZwlrDataControlSourceV1Interface }
func (obj *ZwlrDataControlSourceV1) Version() uint32   { return ZwlrDataControlSourceV1Version }

// Offer advertises one more MIME type. Offering after set_selection is a
// protocol error.
func (obj *ZwlrDataControlSourceV1) Offer(mimeType string) {
	builder := wire.NewMessage(obj, 0)

	builder.WriteString(mimeType)

	builder.Method = "offer"
	builder.Args = []any{mimeType}
	obj.state.Enqueue(builder)
}

func (obj *ZwlrDataControlSourceV1) Destroy() {
	builder := wire.NewMessage(obj, 1)

	builder.Method = "destroy"
	builder.Args = []any{}
	obj.state.Enqueue(builder)
}

type ZwlrDataControlSourceV1Error int64

const (
	// offer sent after wlr_data_control_device.set_selection
	ZwlrDataControlSourceV1ErrorInvalidOffer ZwlrDataControlSourceV1Error = 1
)

func (enum ZwlrDataControlSourceV1Error) String() string {
	switch enum {
	case ZwlrDataControlSourceV1ErrorInvalidOffer:
		return "ZwlrDataControlSourceV1ErrorInvalidOffer"
	}
	return "<invalid ZwlrDataControlSourceV1Error>"
}

const (
	ZwlrDataControlOfferV1Interface = "zwlr_data_control_offer_v1"
	ZwlrDataControlOfferV1Version   = 1
)

// ZwlrDataControlOfferV1Listener receives one Offer call per MIME type,
// right after the offer is introduced.
type ZwlrDataControlOfferV1Listener interface {
	Offer(mimeType string)
}

// ZwlrDataControlOfferV1 is data another client offers for transfer.
type ZwlrDataControlOfferV1 struct {
	Listener ZwlrDataControlOfferV1Listener
	OnDelete func()

	state wire.State
	id    uint32
}

func NewZwlrDataControlOfferV1(state wire.State) *ZwlrDataControlOfferV1 {
	return &ZwlrDataControlOfferV1{state: state}
}

func (obj *ZwlrDataControlOfferV1) State() wire.State { return obj.state }

func (obj *ZwlrDataControlOfferV1) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		mimeType := msg.ReadString()

		if err := msg.Err(); err != nil {
			return err
		}
		if obj.Listener == nil {
			return nil
		}
		obj.Listener.Offer(mimeType)
		return nil
	}

	return wire.UnknownOpError{
		Interface: ZwlrDataControlOfferV1Interface,
		Type:      "event",
		Op:        msg.Op(),
	}
}

func (obj *ZwlrDataControlOfferV1) ID() uint32      { return obj.id }
func (obj *ZwlrDataControlOfferV1) SetID(id uint32) { obj.id = id }

func (obj *ZwlrDataControlOfferV1) Delete() {
	if obj.OnDelete != nil {
		obj.OnDelete()
	}
}

func (obj *ZwlrDataControlOfferV1) String() string {
	return fmt.Sprintf("%v(%v)", ZwlrDataControlOfferV1Interface, obj.id)
}

func (obj *ZwlrDataControlOfferV1) MethodName(op uint16) string {
	switch op {
	case 0:
		return "offer"
	}
	return "unknown method"
}

func (obj *ZwlrDataControlOfferV1) Interface() string { return ZwlrDataControlOfferV1Interface }
func (obj *ZwlrDataControlOfferV1) Version() uint32   { return ZwlrDataControlOfferV1Version }

// Receive asks the source client to write mimeType into fd and close it.
// Read the other end of the pipe until EOF.
func (obj *ZwlrDataControlOfferV1) Receive(mimeType string, fd *os.File) {
	builder := wire.NewMessage(obj, 0)

	builder.WriteString(mimeType)
	builder.WriteFile(fd)

	builder.Method = "receive"
	builder.Args = []any{mimeType, fd}
	obj.state.Enqueue(builder)
}

func (obj *ZwlrDataControlOfferV1) Destroy() {
	builder := wire.NewMessage(obj, 1)

	builder.Method = "destroy"
	builder.Args = []any{}
	obj.state.Enqueue(builder)
}
