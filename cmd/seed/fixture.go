package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tableside-pos/api/internal/database"
)

// Fixture is the YAML document the seeder loads.
type Fixture struct {
	Shops []ShopFixture `yaml:"shops"`
}

type ShopFixture struct {
	Name              string            `yaml:"name"`
	BusinessMode      string            `yaml:"business_mode"`
	Timezone          string            `yaml:"timezone"`
	CleanAfterPayment *bool             `yaml:"clean_after_payment"`
	Categories        []CategoryFixture `yaml:"categories"`
	Tables            []TableFixture    `yaml:"tables"`
}

type CategoryFixture struct {
	Name     string           `yaml:"name"`
	Color    string           `yaml:"color"`
	Products []ProductFixture `yaml:"products"`
}

type ProductFixture struct {
	Name            string          `yaml:"name"`
	Price           decimal.Decimal `yaml:"price"`
	Stock           int32           `yaml:"stock"`
	RequiresKitchen bool            `yaml:"requires_kitchen"`
}

type TableFixture struct {
	Number   int32  `yaml:"number"`
	Capacity int32  `yaml:"capacity"`
	Section  string `yaml:"section"`
}

// ParseFixture decodes and checks a fixture. Unknown keys are rejected so a
// typo does not silently seed defaults.
func ParseFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	var errs []error
	if len(f.Shops) == 0 {
		errs = append(errs, errors.New("fixture has no shops"))
	}
	for i := range f.Shops {
		s := &f.Shops[i]
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("shops[%d]: name is required", i))
			continue
		}
		if s.BusinessMode == "" {
			s.BusinessMode = string(database.BusinessModeRestaurant)
		}
		if s.CleanAfterPayment == nil {
			clean := true
			s.CleanAfterPayment = &clean
		}
		if !database.BusinessMode(s.BusinessMode).Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown business_mode %q", s.Name, s.BusinessMode))
		}
		if s.Timezone == "" {
			s.Timezone = "UTC"
		}
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
		if len(s.Tables) > 0 && s.BusinessMode != string(database.BusinessModeRestaurant) {
			errs = append(errs, fmt.Errorf("%s: tables need restaurant mode", s.Name))
		}

		numbers := make(map[int32]bool, len(s.Tables))
		for _, t := range s.Tables {
			if t.Number <= 0 || t.Capacity <= 0 {
				errs = append(errs, fmt.Errorf("%s: table %d needs a positive number and capacity", s.Name, t.Number))
			}
			if numbers[t.Number] {
				errs = append(errs, fmt.Errorf("%s: duplicate table number %d", s.Name, t.Number))
			}
			numbers[t.Number] = true
		}
		for _, c := range s.Categories {
			for _, p := range c.Products {
				if p.Price.IsNegative() || p.Stock < 0 {
					errs = append(errs, fmt.Errorf("%s/%s: %s has a negative price or stock", s.Name, c.Name, p.Name))
				}
			}
		}
	}
	return errors.Join(errs...)
}
