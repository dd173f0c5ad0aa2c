// Package handler exposes the shop-scoped HTTP API. Handlers decode and
// validate input, call the services or the read stores, and map service
// error kinds onto HTTP statuses.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/conflict"
	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/service"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Notifier receives events for writes that do not go through a service.
// Satisfied by *events.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, evs ...events.Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, ...events.Event) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

type errorResponse struct {
	Error     string              `json:"error"`
	Conflicts []conflict.Conflict `json:"conflicts,omitempty"`
	Details   any                 `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).WithError(err).Error("encode response")
	}
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// writeError maps service error kinds to statuses. Anything unclassified is
// logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var (
		verr *service.ValidationError
		cerr *service.ConflictError
		nerr *service.NotFoundError
		serr *service.StateError
	)
	switch {
	case errors.As(err, &verr):
		writeMessage(w, r, http.StatusBadRequest, verr.Error())
	case errors.As(err, &cerr):
		writeJSON(w, r, http.StatusConflict, errorResponse{
			Error:     cerr.Error(),
			Conflicts: cerr.Conflicts,
			Details:   cerr.Details,
		})
	case errors.As(err, &nerr):
		writeMessage(w, r, http.StatusNotFound, nerr.Error())
	case errors.As(err, &serr):
		// Usually a double submit from a second terminal.
		log.WithError(err).Warn("illegal state transition")
		writeMessage(w, r, http.StatusConflict, serr.Error())
	default:
		log.WithError(err).Error("request failed")
		writeMessage(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fieldMessage(fe)
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be >= %s", name, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be <= %s", name, fe.Param())
	case "uuid":
		return name + " must be a UUID"
	}
	return fmt.Sprintf("%s failed %s", name, fe.Tag())
}

func urlUUID(r *http.Request, key string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, key))
}

// shopParams returns the shop id and the named id from the path, writing a
// 400 when either is malformed.
func shopParams(w http.ResponseWriter, r *http.Request, key, label string) (uuid.UUID, uuid.UUID, bool) {
	shopID, err := urlUUID(r, "sid")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid shop ID")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := urlUUID(r, key)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid "+label+" ID")
		return uuid.Nil, uuid.Nil, false
	}
	return shopID, id, true
}

func shopParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	shopID, err := urlUUID(r, "sid")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid shop ID")
		return uuid.Nil, false
	}
	return shopID, true
}

// serveCached answers from the query cache, or runs load and caches its
// encoded result. Writes invalidate entries through the event dispatcher; a
// result loaded across such an invalidation is served but not cached.
func serveCached(w http.ResponseWriter, r *http.Request, c *cache.Store, key cache.Key, load func(ctx context.Context) (any, error)) {
	var ver cache.Version
	if c != nil {
		ver = c.Version(key)
		if body, ok := c.Get(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	v, err := load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body = append(body, '\n')
	if c != nil {
		c.SetIfUnchanged(key, ver, body)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func numericToString(n pgtype.Numeric) string {
	return service.NumericToDecimal(n).StringFixed(2)
}

func parseMoney(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, fmt.Errorf("amount must be >= 0")
	}
	return service.DecimalToNumeric(d), nil
}

func optionalUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil || *id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}
