package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catalog-storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/metrics"
)

const (
	opAdd            = "add"
	opRemove         = "remove"
	opChangeQuantity = "change_quantity"
	opToggleDrawer   = "toggle_drawer"
)

// LineItem pairs a product snapshot with its quantity (always >= 1).
type LineItem struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns price times quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Product.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is a point-in-time copy of the cart. Items keep insertion order.
type State struct {
	Items      []LineItem `json:"items"`
	DrawerOpen bool       `json:"drawerOpen"`
}

// Total returns the sum of every line subtotal; an empty cart totals zero.
func (s State) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Quantity returns the number of units across all lines.
func (s State) Quantity() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// Listener receives a snapshot after every applied mutation.
type Listener func(State)

type Option func(*Store)

// WithFailFast makes invalid line indexes panic instead of returning an error.
func WithFailFast(enabled bool) Option {
	return func(s *Store) {
		s.failFast = enabled
	}
}

func WithMetrics(m *metrics.CartMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store owns the cart state. Every mutation is applied under one lock, so
// concurrent callers are serialized and no increment is lost.
type Store struct {
	mu         sync.Mutex
	items      []LineItem
	drawerOpen bool

	failFast bool
	metrics  *metrics.CartMetrics

	listenerMu   sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

func NewStore(opts ...Option) *Store {
	s := &Store{listeners: map[int]Listener{}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Add increments the line of an already present product or appends a new
// line with quantity 1. The drawer is always opened.
func (s *Store) Add(product catalog.Product) State {
	s.mu.Lock()
	idx := s.indexOf(product.ID)
	if idx >= 0 {
		s.items[idx].Quantity++
	} else {
		s.items = append(s.items, LineItem{Product: product, Quantity: 1})
	}
	s.drawerOpen = true
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.applied(opAdd, snapshot)
	return snapshot
}

// Remove deletes the line at index.
func (s *Store) Remove(index int) (State, error) {
	s.mu.Lock()
	if err := s.checkIndexLocked(index); err != nil {
		s.mu.Unlock()
		return State{}, s.violation(err)
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.applied(opRemove, snapshot)
	return snapshot, nil
}

// ChangeQuantity adds one unit to the line at index, or removes one unit
// without going below 1.
func (s *Store) ChangeQuantity(index int, increment bool) (State, error) {
	s.mu.Lock()
	if err := s.checkIndexLocked(index); err != nil {
		s.mu.Unlock()
		return State{}, s.violation(err)
	}
	if increment {
		s.items[index].Quantity++
	} else {
		s.items[index].Quantity = max(1, s.items[index].Quantity-1)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.applied(opChangeQuantity, snapshot)
	return snapshot, nil
}

// ToggleDrawer flips drawer visibility and returns the new value.
func (s *Store) ToggleDrawer() bool {
	s.mu.Lock()
	s.drawerOpen = !s.drawerOpen
	open := s.drawerOpen
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.applied(opToggleDrawer, snapshot)
	return open
}

// Total computes the cart total from the current state.
func (s *Store) Total() decimal.Decimal {
	return s.State().Total()
}

// State returns a copy of the current cart.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ItemCount returns the number of lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Quantity returns the number of units across all lines.
func (s *Store) Quantity() int {
	return s.State().Quantity()
}

// Subscribe registers fn for mutation snapshots and returns a func that
// removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.listenerMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenerMu.Lock()
			delete(s.listeners, id)
			s.listenerMu.Unlock()
		})
	}
}

func (s *Store) indexOf(id catalog.ProductID) int {
	for i, item := range s.items {
		if item.Product.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) checkIndexLocked(index int) error {
	if index >= 0 && index < len(s.items) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodePrecondition, "cart line index out of range").
		WithDetails(map[string]int{"index": index, "size": len(s.items)})
}

func (s *Store) violation(err error) error {
	if s.failFast {
		panic(err)
	}
	return err
}

func (s *Store) snapshotLocked() State {
	items := make([]LineItem, len(s.items))
	for i, item := range s.items {
		items[i] = item
		if item.Product.Specifications != nil {
			items[i].Product.Specifications = append([]catalog.Specification(nil), item.Product.Specifications...)
		}
	}
	return State{Items: items, DrawerOpen: s.drawerOpen}
}

func (s *Store) applied(operation string, snapshot State) {
	s.metrics.IncMutation(operation)
	s.metrics.SetLines(len(snapshot.Items))

	s.listenerMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
