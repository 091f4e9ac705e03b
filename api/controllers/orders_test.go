package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sakthi-t/bookscart/internal/orders"
	"github.com/sakthi-t/bookscart/pkg/enums"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/pagination"
)

type stubOrdersService struct {
	actorRole enums.UserRole
	status    enums.OrderStatus
	params    pagination.Params
	calls     int
	order     *orders.OrderDTO
	page      orders.HistoryPage
	err       error
}

func (s *stubOrdersService) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (orders.HistoryPage, error) {
	s.calls++
	s.params = params
	return s.page, s.err
}

func (s *stubOrdersService) Detail(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*orders.OrderDTO, error) {
	s.calls++
	s.actorRole = actorRole
	return s.order, s.err
}

func (s *stubOrdersService) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]orders.OrderDTO, error) {
	return nil, nil
}

func (s *stubOrdersService) Stats(ctx context.Context) (orders.Stats, error) {
	return orders.Stats{}, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*orders.OrderDTO, error) {
	s.calls++
	s.status = status
	return s.order, s.err
}

type stubCheckoutService struct {
	order *orders.OrderDTO
	err   error
}

func (s stubCheckoutService) Checkout(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error) {
	return s.order, s.err
}

func TestCheckoutCreatesOrder(t *testing.T) {
	orderID := uuid.New()
	handler := Checkout(stubCheckoutService{order: &orders.OrderDTO{ID: orderID, Status: enums.OrderStatusInProgress}}, nil)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil), uuid.New(), "customer")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data orders.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != orderID || envelope.Data.Status != enums.OrderStatusInProgress {
		t.Fatalf("unexpected order %+v", envelope.Data)
	}
}

func TestCheckoutEmptyCartIsUnprocessable(t *testing.T) {
	handler := Checkout(stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeEmptyCart, "Your cart is empty.")}, nil)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil), uuid.New(), "customer")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestOrderHistoryPassesCursorParams(t *testing.T) {
	svc := &stubOrdersService{page: orders.HistoryPage{Orders: []orders.OrderDTO{}}}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", nil), uuid.New(), "customer")
	resp := httptest.NewRecorder()
	OrderHistory(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.params.Limit != 5 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.params)
	}
}

func TestOrderHistoryRejectsOutOfRangeLimit(t *testing.T) {
	svc := &stubOrdersService{}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=0", nil), uuid.New(), "customer")
	resp := httptest.NewRecorder()
	OrderHistory(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestOrderDetailPassesCallerRole(t *testing.T) {
	svc := &stubOrdersService{order: &orders.OrderDTO{ID: uuid.New()}}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders/x", nil), uuid.New(), "staff")
	req = withURLParam(req, "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.actorRole != enums.UserRoleStaff {
		t.Fatalf("expected staff role got %q", svc.actorRole)
	}
}

func TestOrderDetailForbiddenForOtherCustomer(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeForbidden, "Not allowed")}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders/x", nil), uuid.New(), "customer")
	req = withURLParam(req, "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestOrderDetailRejectsMalformedID(t *testing.T) {
	svc := &stubOrdersService{}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil), uuid.New(), "customer")
	req = withURLParam(req, "orderId", "not-a-uuid")
	resp := httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestAdminUpdateOrderStatusNormalizesCase(t *testing.T) {
	svc := &stubOrdersService{order: &orders.OrderDTO{ID: uuid.New(), Status: enums.OrderStatusDelivered}}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/x/status", strings.NewReader(`{"status":" delivered "}`))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(withUser(req, uuid.New(), "admin"), "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	AdminUpdateOrderStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.status != enums.OrderStatusDelivered {
		t.Fatalf("expected DELIVERED got %q", svc.status)
	}
}

func TestAdminUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/x/status", strings.NewReader(`{"status":"shipped"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(withUser(req, uuid.New(), "admin"), "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	AdminUpdateOrderStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) || envelope.Error.Details["field"] != "status" {
		t.Fatalf("unexpected error %+v", envelope.Error)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called")
	}
}
