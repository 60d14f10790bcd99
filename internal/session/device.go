package session

import (
	"github.com/labi-le/zzz/internal/selection"
	"github.com/labi-le/zzz/pkg/wlr"
)

// deviceHandler receives the events of one data device.
type deviceHandler interface {
	DataOffer(offer selection.Offer)
	OfferMime(offer selection.Offer, mime string)
	Selection(offer selection.Offer) error
	PrimarySelection(offer selection.Offer)
	Finished()
	Teardown()
}

// device publishes sources through the manager that created it.
type device struct {
	manager *wlr.ZwlrDataControlManagerV1
	device  *wlr.ZwlrDataControlDeviceV1
}

func (d *device) Publish(mimes []string, h selection.SourceHandler) selection.Source {
	src := d.manager.CreateDataSource()
	src.Listener = h
	for _, mime := range mimes {
		src.Offer(mime)
	}
	d.device.SetSelection(src)
	return src
}

func (d *device) Destroy() {
	d.device.Destroy()
}

// offer keeps a nil *ZwlrDataControlOfferV1 from becoming a non-nil
// selection.Offer.
func offer(o *wlr.ZwlrDataControlOfferV1) selection.Offer {
	if o == nil {
		return nil
	}
	return o
}

type deviceEvents struct {
	session *Session
	handler deviceHandler
}

func (e *deviceEvents) DataOffer(o *wlr.ZwlrDataControlOfferV1) {
	if o == nil {
		return
	}
	o.Listener = &offerEvents{offer: o, handler: e.handler}
	e.handler.DataOffer(o)
}

func (e *deviceEvents) Selection(o *wlr.ZwlrDataControlOfferV1) {
	if err := e.handler.Selection(offer(o)); err != nil {
		e.session.Stop(err)
	}
}

func (e *deviceEvents) PrimarySelection(o *wlr.ZwlrDataControlOfferV1) {
	e.handler.PrimarySelection(offer(o))
}

func (e *deviceEvents) Finished() {
	e.handler.Finished()
	if e.session.machine == e.handler {
		e.session.machine = nil
	}
}

type offerEvents struct {
	offer   *wlr.ZwlrDataControlOfferV1
	handler deviceHandler
}

func (e *offerEvents) Offer(mime string) {
	e.handler.OfferMime(e.offer, mime)
}

// discard handles a device nobody watches: every offer is released and the
// selection is left alone.
type discard struct {
	device selection.Device
	last   selection.Offer
	done   bool
}

func (d *discard) DataOffer(offer selection.Offer) {
	d.release()
	d.last = offer
}

func (d *discard) OfferMime(selection.Offer, string) {}

func (d *discard) Selection(selection.Offer) error { return nil }

func (d *discard) PrimarySelection(selection.Offer) {}

func (d *discard) Finished() { d.Teardown() }

func (d *discard) Teardown() {
	if d.done {
		return
	}
	d.done = true
	d.release()
	d.device.Destroy()
}

func (d *discard) release() {
	if d.last != nil {
		d.last.Destroy()
		d.last = nil
	}
}
