package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/akm47777/feriwala-backend-new/gateway"
	"github.com/akm47777/feriwala-backend-new/inventory"
	"github.com/akm47777/feriwala-backend-new/models"
	"github.com/akm47777/feriwala-backend-new/notify"
	"github.com/akm47777/feriwala-backend-new/pricing"
)

// memRepo is an in-memory Repository with the same read-copy semantics as the
// database: reads hand back clones, writes copy state in.
type memRepo struct {
	mu          sync.Mutex
	nextAddr    uint
	nextOrder   uint
	nextPayment uint
	orders      map[uint]*models.Order
	byNumber    map[string]uint
	payments    map[uint]*models.Payment

	failCreateOrder error
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders:   make(map[uint]*models.Order),
		byNumber: make(map[string]uint),
		payments: make(map[uint]*models.Payment),
	}
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	c.Payments = append([]models.Payment(nil), o.Payments...)
	return &c
}

func (r *memRepo) CreateAddress(_ context.Context, addr *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextAddr++
	addr.ID = r.nextAddr
	return nil
}

func (r *memRepo) CreateOrder(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateOrder != nil {
		return r.failCreateOrder
	}
	r.nextOrder++
	order.ID = r.nextOrder
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	r.orders[order.ID] = cloneOrder(order)
	r.byNumber[order.OrderNumber] = order.ID
	return nil
}

func (r *memRepo) CreatePayment(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPayment++
	payment.ID = r.nextPayment
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	p := *payment
	r.payments[p.ID] = &p
	return nil
}

func (r *memRepo) SaveOrder(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memRepo) SavePayment(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment.UpdatedAt = time.Now()
	p := *payment
	r.payments[p.ID] = &p
	return nil
}

// attachPayments fills the order's payment attempts, oldest first. Caller
// holds the lock.
func (r *memRepo) attachPayments(o *models.Order) {
	o.Payments = nil
	for _, p := range r.payments {
		if p.OrderID == o.ID {
			o.Payments = append(o.Payments, *p)
		}
	}
	sort.Slice(o.Payments, func(i, j int) bool { return o.Payments[i].ID < o.Payments[j].ID })
}

func (r *memRepo) OrderByRef(_ context.Context, ref, userID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byNumber[ref]
	if !ok {
		return nil, ErrNotFound
	}
	o := r.orders[id]
	if userID != "" && o.UserID != userID {
		return nil, ErrNotFound
	}
	c := cloneOrder(o)
	r.attachPayments(c)
	return c, nil
}

func (r *memRepo) OrderByID(_ context.Context, id uint) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneOrder(o)
	r.attachPayments(c)
	return c, nil
}

func (r *memRepo) ListOrders(_ context.Context, userID string, status models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []models.Order
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		if status != "" && o.OrderStatus != status {
			continue
		}
		all = append(all, *cloneOrder(o))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memRepo) PaymentByGatewayOrderID(_ context.Context, gatewayOrderID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Payment
	for _, p := range r.payments {
		if p.GatewayOrderID != gatewayOrderID {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	c := *latest
	return &c, nil
}

func (r *memRepo) StalePendingOrders(_ context.Context, olderThan time.Time) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []models.Order
	for _, o := range r.orders {
		if o.OrderStatus == models.OrderStatusPending &&
			o.PaymentMethod != models.PaymentMethodCOD &&
			o.CreatedAt.Before(olderThan) {
			stale = append(stale, *cloneOrder(o))
		}
	}
	return stale, nil
}

func (r *memRepo) backdate(orderNumber string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byNumber[orderNumber]; ok {
		r.orders[id].CreatedAt = r.orders[id].CreatedAt.Add(-d)
	}
}

// memLedger does compare-and-decrement under a mutex, standing in for the
// database's atomic update.
type memLedger struct {
	mu           sync.Mutex
	stock        map[uint]int
	names        map[uint]string
	reservations map[string][]inventory.Item
	committed    map[string]bool
}

func newMemLedger() *memLedger {
	return &memLedger{
		stock:        make(map[uint]int),
		names:        make(map[uint]string),
		reservations: make(map[string][]inventory.Item),
		committed:    make(map[string]bool),
	}
}

func (l *memLedger) Reserve(_ context.Context, orderNumber string, items []inventory.Item) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range items {
		if l.stock[it.ProductID] < it.Quantity {
			for _, undo := range items[:i] {
				l.stock[undo.ProductID] += undo.Quantity
			}
			return &inventory.InsufficientStockError{
				ProductID: it.ProductID,
				Name:      l.names[it.ProductID],
				Available: l.stock[it.ProductID],
			}
		}
		l.stock[it.ProductID] -= it.Quantity
	}
	l.reservations[orderNumber] = items
	return nil
}

func (l *memLedger) Commit(_ context.Context, orderNumber string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.reservations[orderNumber]; ok {
		l.committed[orderNumber] = true
	}
	return nil
}

func (l *memLedger) Release(_ context.Context, orderNumber string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.reservations[orderNumber] {
		l.stock[it.ProductID] += it.Quantity
	}
	delete(l.reservations, orderNumber)
	delete(l.committed, orderNumber)
	return nil
}

func (l *memLedger) stockOf(productID uint) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[productID]
}

// fakeGateway accepts any signature of the form "sig:<orderID>:<paymentID>".
type fakeGateway struct {
	mu         sync.Mutex
	intents    int
	refunds    []int64
	failCreate error
	failRefund error
}

func sigFor(gatewayOrderID, gatewayPaymentID string) string {
	return "sig:" + gatewayOrderID + ":" + gatewayPaymentID
}

func (g *fakeGateway) CreateIntent(_ context.Context, amountMinor int64, _ string, _ map[string]string) (*gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCreate != nil {
		return nil, g.failCreate
	}
	g.intents++
	return &gateway.Intent{
		GatewayOrderID: fmt.Sprintf("gw_order_%d", g.intents),
		Amount:         amountMinor,
		Currency:       "INR",
	}, nil
}

func (g *fakeGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return signature == sigFor(gatewayOrderID, gatewayPaymentID)
}

func (g *fakeGateway) Refund(_ context.Context, _ string, amountMinor int64, _ map[string]string) (*gateway.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRefund != nil {
		return nil, g.failRefund
	}
	g.refunds = append(g.refunds, amountMinor)
	return &gateway.RefundResult{RefundID: fmt.Sprintf("rfnd_%d", len(g.refunds))}, nil
}

// memCatalog serves product snapshots independent of the ledger, like a read
// that may be stale by the time stock is reserved.
type memCatalog struct {
	mu       sync.Mutex
	products map[uint]*models.Product
	coupons  map[string]*models.Coupon
}

func (c *memCatalog) Snapshots(_ context.Context, ids []uint) (map[uint]*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[uint]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (c *memCatalog) ByCode(_ context.Context, code string) (*models.Coupon, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coupons[code], nil
}

func (c *memCatalog) setStock(productID uint, stock int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[productID].Stock = stock
}

type captureDispatcher struct {
	mu     sync.Mutex
	events []notify.OrderEvent
}

func (d *captureDispatcher) Notify(_ string, event notify.OrderEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *captureDispatcher) count(kind notify.EventKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type harness struct {
	svc      *Service
	repo     *memRepo
	ledger   *memLedger
	gw       *fakeGateway
	catalog  *memCatalog
	dispatch *captureDispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:     newMemRepo(),
		ledger:   newMemLedger(),
		gw:       &fakeGateway{},
		dispatch: &captureDispatcher{},
		catalog: &memCatalog{
			products: map[uint]*models.Product{
				1: {ID: 1, Name: "Kettle", Price: 100, Stock: 5, IsActive: true},
				2: {ID: 2, Name: "Teapot", Price: 250, Stock: 10, IsActive: true},
			},
			coupons: map[string]*models.Coupon{},
		},
	}
	h.ledger.stock[1], h.ledger.names[1] = 5, "Kettle"
	h.ledger.stock[2], h.ledger.names[2] = 10, "Teapot"

	pricer := pricing.NewCalculator(499, 50, 0.18)
	h.svc = NewService(h.repo, h.ledger, h.gw, h.catalog, h.catalog, pricer, h.dispatch, zaptest.NewLogger(t))
	h.svc.lookupRetries = 2
	h.svc.lookupBackoff = time.Millisecond
	return h
}

func baseInput(method models.PaymentMethod) PlaceOrderInput {
	return PlaceOrderInput{
		UserID: "user-1",
		Items:  []pricing.Line{{ProductID: 1, Quantity: 2}},
		ShippingAddress: AddressInput{
			FirstName:    "Asha",
			LastName:     "Verma",
			Phone:        "9876543210",
			AddressLine1: "14 MG Road",
			City:         "Mumbai",
			State:        "Maharashtra",
			Pincode:      "400001",
		},
		PaymentMethod: method,
	}
}

// place is a shorthand for tests that need an order already on file.
func (h *harness) place(t *testing.T, method models.PaymentMethod) *PlaceOrderResult {
	t.Helper()
	res, err := h.svc.Place(context.Background(), baseInput(method))
	if err != nil {
		t.Fatalf("Place(%s): %v", method, err)
	}
	return res
}

var errBoom = errors.New("boom")

func timeNowMinusHour() time.Time { return time.Now().Add(-time.Hour) }
func timeNowPlusHour() time.Time  { return time.Now().Add(time.Hour) }
