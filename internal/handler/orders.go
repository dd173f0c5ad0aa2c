package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/middleware"
	"github.com/tableside-pos/api/internal/payment"
	"github.com/tableside-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	AddItemsToOrder(ctx context.Context, shopID, orderID uuid.UUID, items []service.OrderItemRequest) (*service.OrderResult, error)
	CompletePayment(ctx context.Context, shopID, orderID uuid.UUID, method database.PaymentMethod) (*service.OrderResult, error)
	CancelOrder(ctx context.Context, shopID, orderID uuid.UUID) (*service.OrderResult, error)
	GetOrder(ctx context.Context, shopID, orderID uuid.UUID) (*service.OrderResult, error)
	CreatePaymentIntent(ctx context.Context, shopID, orderID uuid.UUID, currency string) (payment.Intent, error)
}

// OrderStore defines the read queries needed by order handlers.
// Satisfied by *database.Queries.
type OrderStore interface {
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	cache *cache.Store
}

func NewOrderHandler(svc OrderServicer, store OrderStore, c *cache.Store) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, cache: c}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a shop-scoped subrouter: /shops/{sid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{oid}", h.Get)
	r.Patch("/{oid}/items", h.AddItems)
	r.Patch("/{oid}/complete-payment", h.CompletePayment)
	r.Post("/{oid}/payment-intent", h.CreatePaymentIntent)
	r.Delete("/{oid}", h.Cancel)
}

// --- Request types ---

type orderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int32     `json:"quantity" validate:"required,gte=1"`
}

type createOrderRequest struct {
	TableID    *uuid.UUID         `json:"table_id"`
	GuestCount int32              `json:"guest_count" validate:"gte=0"`
	Items      []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type addItemsRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type completePaymentRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card"`
}

type paymentIntentRequest struct {
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

type paymentIntentResponse struct {
	OrderID      uuid.UUID `json:"order_id"`
	IntentID     string    `json:"intent_id"`
	ClientSecret string    `json:"client_secret"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
}

func toServiceItems(items []orderItemRequest) []service.OrderItemRequest {
	out := make([]service.OrderItemRequest, len(items))
	for i, it := range items {
		out[i] = service.OrderItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

// --- Handlers ---

// Create opens an order. A table_id seats it at that table (restaurant
// mode); omitting it makes a counter order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeMessage(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	res, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		ShopID:     shopID,
		UserID:     claims.UserID,
		TableID:    derefUUID(req.TableID),
		GuestCount: req.GuestCount,
		Items:      toServiceItems(req.Items),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).WithFields(logrus.Fields{
		"shop_id":  shopID,
		"order_id": res.Order.ID,
	}).Info("order created")
	writeJSON(w, r, http.StatusCreated, res)
}

// List filters by ?status=, ?table_id=, with ?limit= (default 50) and
// ?offset=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	params := database.ListOrdersParams{ShopID: shopID, Limit: 50}

	if s := q.Get("status"); s != "" {
		st := database.OrderStatus(s)
		switch st {
		case database.OrderStatusOpen, database.OrderStatusCompleted, database.OrderStatusCancelled:
			params.Status = database.NullOrderStatus{OrderStatus: st, Valid: true}
		default:
			writeMessage(w, r, http.StatusBadRequest, "invalid status filter")
			return
		}
	}
	if s := q.Get("table_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeMessage(w, r, http.StatusBadRequest, "invalid table_id")
			return
		}
		params.TableID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 200 {
			writeMessage(w, r, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		params.Limit = int32(n)
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeMessage(w, r, http.StatusBadRequest, "offset must be >= 0")
			return
		}
		params.Offset = int32(n)
	}

	key := cache.NewKey(cache.Orders, shopID, q.Get("status"), q.Get("table_id"),
		strconv.Itoa(int(params.Limit)), strconv.Itoa(int(params.Offset)))
	serveCached(w, r, h.cache, key, func(ctx context.Context) (any, error) {
		orders, err := h.store.ListOrders(ctx, params)
		if orders == nil {
			orders = []database.Order{}
		}
		return orders, err
	})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	shopID, orderID, ok := shopParams(w, r, "oid", "order")
	if !ok {
		return
	}

	res, err := h.svc.GetOrder(r.Context(), shopID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// AddItems appends items to an open order and to its kitchen ticket.
func (h *OrderHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	shopID, orderID, ok := shopParams(w, r, "oid", "order")
	if !ok {
		return
	}

	var req addItemsRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.AddItemsToOrder(r.Context(), shopID, orderID, toServiceItems(req.Items))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// CompletePayment closes an open order and releases its table.
func (h *OrderHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	shopID, orderID, ok := shopParams(w, r, "oid", "order")
	if !ok {
		return
	}

	var req completePaymentRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.CompletePayment(r.Context(), shopID, orderID, database.PaymentMethod(req.PaymentMethod))
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).WithFields(logrus.Fields{
		"shop_id":  shopID,
		"order_id": orderID,
		"method":   req.PaymentMethod,
	}).Info("payment completed")
	writeJSON(w, r, http.StatusOK, res)
}

func (h *OrderHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	shopID, orderID, ok := shopParams(w, r, "oid", "order")
	if !ok {
		return
	}

	var req paymentIntentRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	intent, err := h.svc.CreatePaymentIntent(r.Context(), shopID, orderID, req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, paymentIntentResponse{
		OrderID:      orderID,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	})
}

// Cancel voids an open order, restoring taken stock.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	shopID, orderID, ok := shopParams(w, r, "oid", "order")
	if !ok {
		return
	}

	res, err := h.svc.CancelOrder(r.Context(), shopID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
