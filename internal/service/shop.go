package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
)

// ShopService owns shop lifecycle and settings.
type ShopService struct {
	core
}

func NewShopService(pool TxBeginner, newStore NewStore, opts Options) *ShopService {
	return &ShopService{core: newCore(pool, newStore, opts)}
}

type CreateShopRequest struct {
	Name              string
	BusinessMode      database.BusinessMode
	OwnerID           uuid.UUID
	Timezone          string
	// CleanAfterPayment defaults to true when nil.
	CleanAfterPayment *bool
}

// ShopSettings is a partial update; nil fields are left unchanged.
type ShopSettings struct {
	Name              *string
	BusinessMode      *database.BusinessMode
	Timezone          *string
	CleanAfterPayment *bool
}

// DeleteResult reports what a delete removed.
type DeleteResult struct {
	ShopID        uuid.UUID                 `json:"shop_id"`
	CascadeDelete bool                      `json:"cascade_delete"`
	Deleted       database.CountShopDataRow `json:"deleted"`
}

func (s *ShopService) CreateShop(ctx context.Context, req CreateShopRequest) (database.Shop, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return database.Shop{}, invalid(ErrShopNameRequired)
	}
	if req.BusinessMode == "" {
		req.BusinessMode = database.BusinessModeRestaurant
	}
	if !req.BusinessMode.Valid() {
		return database.Shop{}, invalid(ErrInvalidBusinessMode)
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if err := validateTimezone(req.Timezone); err != nil {
		return database.Shop{}, err
	}

	clean := true
	if req.CleanAfterPayment != nil {
		clean = *req.CleanAfterPayment
	}

	var shop database.Shop
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		sh, err := store.CreateShop(ctx, database.CreateShopParams{
			Name:              req.Name,
			BusinessMode:      req.BusinessMode,
			OwnerID:           req.OwnerID,
			Timezone:          req.Timezone,
			CleanAfterPayment: clean,
		})
		if err != nil {
			return nil, fmt.Errorf("create shop: %w", err)
		}
		shop = sh
		return []events.Event{{Type: events.ShopUpdated, ShopID: sh.ID, Payload: sh}}, nil
	})
	return shop, err
}

// UpdateShopSettings applies a partial settings update. Callers gate the
// business mode toggle to admins.
func (s *ShopService) UpdateShopSettings(ctx context.Context, shopID uuid.UUID, in ShopSettings) (database.Shop, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return database.Shop{}, invalid(ErrShopNameRequired)
		}
		in.Name = &name
	}
	if in.BusinessMode != nil && !in.BusinessMode.Valid() {
		return database.Shop{}, invalid(ErrInvalidBusinessMode)
	}
	if in.Timezone != nil {
		if err := validateTimezone(*in.Timezone); err != nil {
			return database.Shop{}, err
		}
	}

	var shop database.Shop
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		current, err := lockShop(ctx, store, shopID)
		if err != nil {
			return nil, err
		}
		arg := database.UpdateShopParams{
			ID:                current.ID,
			Name:              current.Name,
			BusinessMode:      current.BusinessMode,
			Timezone:          current.Timezone,
			CleanAfterPayment: current.CleanAfterPayment,
		}
		if in.Name != nil {
			arg.Name = *in.Name
		}
		if in.BusinessMode != nil {
			arg.BusinessMode = *in.BusinessMode
		}
		if in.Timezone != nil {
			arg.Timezone = *in.Timezone
		}
		if in.CleanAfterPayment != nil {
			arg.CleanAfterPayment = *in.CleanAfterPayment
		}
		updated, err := store.UpdateShop(ctx, arg)
		if err != nil {
			return nil, fmt.Errorf("update shop: %w", err)
		}
		shop = updated
		return []events.Event{{Type: events.ShopUpdated, ShopID: shopID, Payload: updated}}, nil
	})
	return shop, err
}

// DeleteShop removes a shop. A shop holding any data is only removed when
// cascade is set and confirmationName matches the shop name exactly.
func (s *ShopService) DeleteShop(ctx context.Context, shopID uuid.UUID, confirmationName string, cascade bool) (*DeleteResult, error) {
	var result DeleteResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		shop, err := lockShop(ctx, store, shopID)
		if err != nil {
			return nil, err
		}
		counts, err := store.CountShopData(ctx, shopID)
		if err != nil {
			return nil, fmt.Errorf("count shop data: %w", err)
		}
		hasData := counts.Categories+counts.Products+counts.Tables+counts.Orders+counts.Reservations > 0
		if hasData && (!cascade || confirmationName != shop.Name) {
			return nil, &ConflictError{Err: ErrConfirmationRequired, Details: counts}
		}

		n, err := store.DeleteShop(ctx, shopID)
		if err != nil {
			return nil, fmt.Errorf("delete shop: %w", err)
		}
		if n == 0 {
			return nil, notFound(ErrShopNotFound)
		}
		result = DeleteResult{ShopID: shopID, CascadeDelete: hasData, Deleted: counts}
		return []events.Event{{Type: events.ShopDeleted, ShopID: shopID, Payload: result}}, nil
	})
	if err != nil {
		return nil, err
	}
	s.opts.Logger.WithFields(logrus.Fields{
		"shop_id": shopID,
		"cascade": result.CascadeDelete,
	}).Info("shop deleted")
	return &result, nil
}

func validateTimezone(tz string) error {
	if _, err := time.LoadLocation(tz); err != nil || tz == "" || tz == "Local" {
		return invalid(fmt.Errorf("%w: %q", ErrInvalidTimezone, tz))
	}
	return nil
}
