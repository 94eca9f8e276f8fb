// Package selection tracks which order panel, if any, is open in a dashboard
// session and which instrument it is bound to.
//
// The state is a single value of the sealed State interface: Closed, BuyOpen
// or SellOpen. There is no representation in which a buy and a sell panel
// are open together.
package selection

import (
	"sync"
	"sync/atomic"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
)

// DefaultQuantity is the quantity a fresh panel starts with.
const DefaultQuantity = 1

// Panel is an open order panel: the bound instrument plus the draft inputs.
type Panel struct {
	Instrument model.Instrument
	Qty        float64
	Price      float64
}

func newPanel(instrument model.Instrument) Panel {
	return Panel{Instrument: instrument, Qty: DefaultQuantity, Price: instrument.Price}
}

// State is one of Closed, BuyOpen or SellOpen.
type State interface {
	isState()
}

// Closed means no panel is open.
type Closed struct{}

// BuyOpen means the buy panel is open.
type BuyOpen struct{ Panel Panel }

// SellOpen means the sell panel is open.
type SellOpen struct{ Panel Panel }

func (Closed) isState()   {}
func (BuyOpen) isState()  {}
func (SellOpen) isState() {}

// OpenPanel returns the panel and its mode when s is BuyOpen or SellOpen.
func OpenPanel(s State) (Panel, model.OrderMode, bool) {
	switch st := s.(type) {
	case BuyOpen:
		return st.Panel, model.ModeBuy, true
	case SellOpen:
		return st.Panel, model.ModeSell, true
	default:
		return Panel{}, "", false
	}
}

// Controller owns the selection state of one session. It is safe for
// concurrent use; every transition replaces the state atomically.
type Controller struct {
	mu    sync.RWMutex
	state State
	busy  atomic.Bool
}

// NewController returns a controller in the Closed state.
func NewController() *Controller {
	return &Controller{state: Closed{}}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// OpenBuy opens the buy panel for instrument, replacing any open panel.
func (c *Controller) OpenBuy(instrument model.Instrument) State {
	return c.set(BuyOpen{Panel: newPanel(instrument)})
}

// OpenSell opens the sell panel for instrument, replacing any open panel.
func (c *Controller) OpenSell(instrument model.Instrument) State {
	return c.set(SellOpen{Panel: newPanel(instrument)})
}

// Close closes whichever panel is open and drops its instrument.
// Closing an already closed controller is a no-op.
func (c *Controller) Close() State {
	return c.set(Closed{})
}

// UpdateDraft replaces the draft inputs of the open panel.
// Inputs are stored as typed; validation happens on submission.
func (c *Controller) UpdateDraft(qty, price float64) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch st := c.state.(type) {
	case BuyOpen:
		st.Panel.Qty, st.Panel.Price = qty, price
		c.state = st
	case SellOpen:
		st.Panel.Qty, st.Panel.Price = qty, price
		c.state = st
	default:
		return c.state, apperrors.ErrPanelClosed
	}
	return c.state, nil
}

// CompleteSubmission closes the panel after an accepted order, but only if
// the selection still shows the panel the order was submitted from. A panel
// opened for another instrument or mode during the submission stays open.
func (c *Controller) CompleteSubmission(submitted State) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sameSelection(c.state, submitted) {
		c.state = Closed{}
	}
	return c.state
}

func sameSelection(a, b State) bool {
	pa, ma, okA := OpenPanel(a)
	pb, mb, okB := OpenPanel(b)
	if !okA || !okB {
		return okA == okB
	}
	return ma == mb && pa.Instrument.Name == pb.Instrument.Name
}

// BeginSubmission marks the session's panel busy until done is called.
// It fails with ErrSubmissionInFlight while a previous submission is unresolved.
func (c *Controller) BeginSubmission() (done func(), err error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, apperrors.ErrSubmissionInFlight
	}
	return func() { c.busy.Store(false) }, nil
}

// Busy reports whether a submission is in flight.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Snapshot renders the current state, including the busy flag, for the API.
func (c *Controller) Snapshot() model.SelectionView {
	v := View(c.State())
	v.Busy = c.Busy()
	return v
}

func (c *Controller) set(s State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	return s
}

// View renders s for the API.
func View(s State) model.SelectionView {
	panel, mode, ok := OpenPanel(s)
	if !ok {
		return model.SelectionView{Panel: "none"}
	}

	name := "buy"
	if mode == model.ModeSell {
		name = "sell"
	}
	instrument := panel.Instrument
	qty, price := panel.Qty, panel.Price
	return model.SelectionView{
		Panel:      name,
		Instrument: &instrument,
		Qty:        &qty,
		Price:      &price,
	}
}
