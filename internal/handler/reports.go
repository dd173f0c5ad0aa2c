package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/service"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetShop(ctx context.Context, id uuid.UUID) (database.Shop, error)
	GetPaymentSummary(ctx context.Context, arg database.GetPaymentSummaryParams) ([]database.GetPaymentSummaryRow, error)
	GetHourlySales(ctx context.Context, arg database.GetHourlySalesParams) ([]database.GetHourlySalesRow, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
	cache *cache.Store
	now   func() time.Time
}

func NewReportsHandler(store ReportsStore, c *cache.Store) *ReportsHandler {
	return &ReportsHandler{store: store, cache: c, now: time.Now}
}

// RegisterRoutes registers shop-scoped report endpoints.
// Expected to be mounted inside a shop-scoped subrouter: /shops/{sid}/reports
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sales", h.Sales)
}

// --- Response types ---

type paymentSummaryResponse struct {
	PaymentMethod string `json:"payment_method"`
	OrderCount    int64  `json:"order_count"`
	TotalRevenue  string `json:"total_revenue"`
}

type hourlySalesResponse struct {
	Hour         int32  `json:"hour"`
	OrderCount   int64  `json:"order_count"`
	TotalRevenue string `json:"total_revenue"`
}

type salesReportResponse struct {
	StartDate    string                   `json:"start_date"`
	EndDate      string                   `json:"end_date"`
	Timezone     string                   `json:"timezone"`
	OrderCount   int64                    `json:"order_count"`
	TotalRevenue string                   `json:"total_revenue"`
	ByMethod     []paymentSummaryResponse `json:"by_payment_method"`
	ByHour       []hourlySalesResponse    `json:"by_hour"`
}

// Sales summarizes completed orders between ?start_date= and ?end_date=
// (YYYY-MM-DD, inclusive, shop local time). Defaults to the last 30 days.
func (h *ReportsHandler) Sales(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	shop, err := h.store.GetShop(r.Context(), shopID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = &service.NotFoundError{Err: service.ErrShopNotFound}
		}
		writeError(w, r, err)
		return
	}
	loc, err := time.LoadLocation(shop.Timezone)
	if err != nil {
		loc = time.UTC
	}

	start, end, err := parseDateRange(r, loc, h.now())
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	key := cache.NewKey(cache.Reports, shopID, "sales", start.Format(time.RFC3339), end.Format(time.RFC3339))
	serveCached(w, r, h.cache, key, func(ctx context.Context) (any, error) {
		methods, err := h.store.GetPaymentSummary(ctx, database.GetPaymentSummaryParams{ShopID: shopID, Start: start, End: end})
		if err != nil {
			return nil, err
		}
		hours, err := h.store.GetHourlySales(ctx, database.GetHourlySalesParams{
			ShopID:   shopID,
			Start:    start,
			End:      end,
			Timezone: shop.Timezone,
		})
		if err != nil {
			return nil, err
		}

		resp := salesReportResponse{
			StartDate: start.Format("2006-01-02"),
			EndDate:   end.AddDate(0, 0, -1).Format("2006-01-02"),
			Timezone:  loc.String(),
			ByMethod:  make([]paymentSummaryResponse, 0, len(methods)),
			ByHour:    make([]hourlySalesResponse, len(hours)),
		}
		total := decimal.Zero
		for _, m := range methods {
			method := "unknown"
			if m.PaymentMethod.Valid {
				method = string(m.PaymentMethod.PaymentMethod)
			}
			resp.OrderCount += m.OrderCount
			total = total.Add(service.NumericToDecimal(m.TotalRevenue))
			resp.ByMethod = append(resp.ByMethod, paymentSummaryResponse{
				PaymentMethod: method,
				OrderCount:    m.OrderCount,
				TotalRevenue:  numericToString(m.TotalRevenue),
			})
		}
		for i, row := range hours {
			resp.ByHour[i] = hourlySalesResponse{
				Hour:         row.Hour,
				OrderCount:   row.OrderCount,
				TotalRevenue: numericToString(row.TotalRevenue),
			}
		}
		resp.TotalRevenue = total.StringFixed(2)
		return resp, nil
	})
}

// parseDateRange parses start_date and end_date query params in the shop's
// timezone. Returns (start, end) where end is exclusive (next day midnight).
func parseDateRange(r *http.Request, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	start := today.AddDate(0, 0, -30)
	end := today.AddDate(0, 0, 1)

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format: want YYYY-MM-DD")
		}
		start = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format: want YYYY-MM-DD")
		}
		end = t.AddDate(0, 0, 1)
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must not be after end_date")
	}
	return start, end, nil
}
