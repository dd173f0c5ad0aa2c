package main

import (
	"bytes"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFixture_Default(t *testing.T) {
	f, err := ParseFixture(bytes.NewReader(defaultFixture))
	require.NoError(t, err)
	require.Len(t, f.Shops, 2)

	bistro := f.Shops[0]
	assert.Equal(t, "restaurant", bistro.BusinessMode)
	assert.Len(t, bistro.Tables, 5)
	assert.Equal(t, "32.00", bistro.Categories[0].Products[0].Price.StringFixed(2))

	cafe := f.Shops[1]
	assert.Equal(t, "UTC", cafe.Timezone)
	assert.Empty(t, cafe.Tables)
	require.NotNil(t, cafe.CleanAfterPayment)
	assert.True(t, *cafe.CleanAfterPayment, "omitted clean_after_payment defaults to true")
}

func TestParseFixture_CleanAfterPaymentOptOut(t *testing.T) {
	f, err := ParseFixture(strings.NewReader("shops:\n  - name: A\n    clean_after_payment: false"))
	require.NoError(t, err)
	require.NotNil(t, f.Shops[0].CleanAfterPayment)
	assert.False(t, *f.Shops[0].CleanAfterPayment)
}

func TestParseFixture_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "shops: []", "no shops"},
		{"unknown key", "shops:\n  - name: A\n    colour: red", "colour"},
		{"bad mode", "shops:\n  - name: A\n    business_mode: kiosk", "business_mode"},
		{"bad timezone", "shops:\n  - name: A\n    timezone: Mars/Olympus", "Mars/Olympus"},
		{"tables in shop mode", "shops:\n  - name: A\n    business_mode: shop\n    tables:\n      - {number: 1, capacity: 2}", "restaurant mode"},
		{"duplicate table", "shops:\n  - name: A\n    tables:\n      - {number: 1, capacity: 2}\n      - {number: 1, capacity: 4}", "duplicate table number 1"},
		{"negative price", "shops:\n  - name: A\n    categories:\n      - name: C\n        products:\n          - {name: P, price: \"-1\"}", "negative price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
