package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-commerce-backend/internal/idempotency"
	"github.com/imrishuroy/go-commerce-backend/internal/orders"
	"github.com/imrishuroy/go-commerce-backend/internal/validation"
)

type fakeOrderService struct {
	createErr   error
	created     []*orders.Order
	quickCalls  int
	deleted     []string
	statusCalls map[string]string
}

func (f *fakeOrderService) newOrder(customerID string) *orders.Order {
	o := &orders.Order{
		ID:          "order-1",
		CustomerID:  customerID,
		TotalAmount: decimal.RequireFromString("30.00"),
		Status:      orders.StatusPending,
	}
	f.created = append(f.created, o)
	return o
}

func (f *fakeOrderService) Create(ctx context.Context, customerID string, items []orders.ItemInput) (*orders.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.newOrder(customerID), nil
}

func (f *fakeOrderService) QuickCreate(ctx context.Context, customerID, productID string) (*orders.Order, error) {
	f.quickCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.newOrder(customerID), nil
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, orderID, status string) (*orders.Order, error) {
	if orderID == "ghost" {
		return nil, orders.ErrNotFound
	}
	if f.statusCalls == nil {
		f.statusCalls = map[string]string{}
	}
	f.statusCalls[orderID] = status
	return &orders.Order{ID: orderID, Status: status}, nil
}

func (f *fakeOrderService) Delete(ctx context.Context, orderID string) error {
	if orderID == "ghost" {
		return orders.ErrNotFound
	}
	f.deleted = append(f.deleted, orderID)
	return nil
}

func (f *fakeOrderService) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	if orderID == "ghost" {
		return nil, orders.ErrNotFound
	}
	return &orders.Order{ID: orderID}, nil
}

func (f *fakeOrderService) List(ctx context.Context) ([]*orders.Order, error) {
	return []*orders.Order{}, nil
}

func (f *fakeOrderService) ListByCustomer(ctx context.Context, customerID string) ([]*orders.Order, error) {
	return []*orders.Order{}, nil
}

type fakeIdempotency struct {
	records     map[string]*idempotency.Record
	markDoneErr error
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{records: map[string]*idempotency.Record{}}
}

func (f *fakeIdempotency) CreateIfNotExists(ctx context.Context, key, orderID string) (bool, error) {
	if _, ok := f.records[key]; ok {
		return false, nil
	}
	f.records[key] = &idempotency.Record{
		IdempotencyKey: key,
		Status:         idempotency.StatusInProgress,
		OrderID:        orderID,
	}
	return true, nil
}

func (f *fakeIdempotency) Get(ctx context.Context, key string) (*idempotency.Record, error) {
	return f.records[key], nil
}

func (f *fakeIdempotency) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	if f.markDoneErr != nil {
		return f.markDoneErr
	}
	rec := f.records[key]
	rec.Status = idempotency.StatusDone
	rec.ResponseBody = responseBody
	rec.ResponseStatus = responseStatus
	return nil
}

func (f *fakeIdempotency) MarkFailed(ctx context.Context, key, note string) error {
	rec := f.records[key]
	rec.Status = idempotency.StatusFailed
	rec.Note = note
	return nil
}

type fakePublisher struct {
	messages []string
}

func (f *fakePublisher) SendOrderMessage(ctx context.Context, body string, attrs map[string]string) error {
	f.messages = append(f.messages, body)
	return nil
}

type fakeMetrics struct {
	placed  int
	deleted int
}

func (f *fakeMetrics) OrderPlaced(ctx context.Context, total decimal.Decimal) error {
	f.placed++
	return nil
}

func (f *fakeMetrics) OrderDeleted(ctx context.Context) error {
	f.deleted++
	return nil
}

type fixture struct {
	router  *gin.Engine
	service *fakeOrderService
	idemp   *fakeIdempotency
	pub     *fakePublisher
	metrics *fakeMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		service: &fakeOrderService{},
		idemp:   newFakeIdempotency(),
		pub:     &fakePublisher{},
		metrics: &fakeMetrics{},
	}
	cfg := HandlerConfig{
		Orders:      f.service,
		Idempotency: f.idemp,
		Publisher:   f.pub,
		Metrics:     f.metrics,
		Log:         log,
	}

	r := gin.New()
	RegisterOrdersRoutes(r, cfg, validation.New())
	f.router = r
	return f
}

func (f *fixture) do(method, path, body, idempKey string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if idempKey != "" {
		req.Header.Set("Idempotency-Key", idempKey)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCreateOrderEndpoint(t *testing.T) {
	f := newFixture(t)

	body := `{"customer_id":"cust-1","items":[{"product_id":"prod-1","quantity":3}]}`
	w := f.do(http.MethodPost, "/api/orders", body, "key-1")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/api/orders/order-1", w.Header().Get("Location"))

	var resp orders.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "order-1", resp.ID)

	require.Len(t, f.pub.messages, 1)
	assert.Contains(t, f.pub.messages[0], "order-1")
	assert.Equal(t, 1, f.metrics.placed)
	assert.Equal(t, idempotency.StatusDone, f.idemp.records["key-1"].Status)
}

func TestCreateOrderRequiresIdempotencyKey(t *testing.T) {
	f := newFixture(t)

	body := `{"customer_id":"cust-1","items":[{"product_id":"prod-1","quantity":1}]}`
	w := f.do(http.MethodPost, "/api/orders", body, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.service.created)
}

func TestCreateOrderRejectsBadBody(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/orders", `{"customer_id":"cust-1","items":[]}`, "key-1")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.service.created)
}

func TestCreateOrderReplaysStoredResponse(t *testing.T) {
	f := newFixture(t)
	f.idemp.records["key-1"] = &idempotency.Record{
		IdempotencyKey: "key-1",
		Status:         idempotency.StatusDone,
		ResponseBody:   `{"id":"order-1"}`,
		ResponseStatus: http.StatusCreated,
	}

	body := `{"customer_id":"cust-1","items":[{"product_id":"prod-1","quantity":1}]}`
	w := f.do(http.MethodPost, "/api/orders", body, "key-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"order-1"}`, w.Body.String())
	assert.Empty(t, f.service.created, "workflow must not run again")
	assert.Empty(t, f.pub.messages)
}

func TestCreateOrderDuplicateInProgress(t *testing.T) {
	f := newFixture(t)
	f.idemp.records["key-1"] = &idempotency.Record{
		IdempotencyKey: "key-1",
		Status:         idempotency.StatusInProgress,
	}

	body := `{"customer_id":"cust-1","items":[{"product_id":"prod-1","quantity":1}]}`
	w := f.do(http.MethodPost, "/api/orders", body, "key-1")

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, f.service.created)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.service.createErr = orders.ErrInsufficientStock

	body := `{"customer_id":"cust-1","items":[{"product_id":"prod-1","quantity":9}]}`
	w := f.do(http.MethodPost, "/api/orders", body, "key-1")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, idempotency.StatusFailed, f.idemp.records["key-1"].Status)
	assert.Empty(t, f.pub.messages)
}

func TestQuickCreateOrderEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/customers/cust-1/orders", `{"product_id":"prod-1"}`, "key-q")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, f.service.quickCalls)
	require.Len(t, f.service.created, 1)
	assert.Equal(t, "cust-1", f.service.created[0].CustomerID, "customer comes from the path")
}

func TestCreateOrderSucceedsWhenMarkDoneFails(t *testing.T) {
	f := newFixture(t)
	f.idemp.markDoneErr = assert.AnError

	body := `{"customer_id":"cust-1","items":[{"product_id":"prod-1","quantity":1}]}`
	w := f.do(http.MethodPost, "/api/orders", body, "key-1")

	// The order is committed; a broken idempotency write must not fail it.
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, f.service.created, 1)
	require.Len(t, f.pub.messages, 1)
	assert.Equal(t, idempotency.StatusInProgress, f.idemp.records["key-1"].Status)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/orders/ghost", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPatch, "/api/orders/order-1/status", `{"status":"shipped"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shipped", f.service.statusCalls["order-1"])

	w = f.do(http.MethodPatch, "/api/orders/ghost/status", `{"status":"shipped"}`, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteOrderEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodDelete, "/api/orders/order-1", "", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"order-1"}, f.service.deleted)
	assert.Equal(t, 1, f.metrics.deleted)

	w = f.do(http.MethodDelete, "/api/orders/ghost", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
