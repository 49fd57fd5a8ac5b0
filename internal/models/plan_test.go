package models

import (
	"errors"
	"testing"
)

func TestComputePlanPrice(t *testing.T) {
	tests := []struct {
		name     string
		cpuPrice float64
		months   int
		items    []PriceItem
		want     float64
	}{
		{
			name:     "cpu only",
			cpuPrice: 100,
			months:   1,
			want:     100,
		},
		{
			name:     "line items sum with quantity",
			cpuPrice: 100,
			months:   1,
			items: []PriceItem{
				{UnitPrice: 20, Quantity: 2}, // 40
				{UnitPrice: 50, Quantity: 1}, // 50
			},
			want: 190,
		},
		{
			name:     "duration multiplies the whole bundle",
			cpuPrice: 100,
			months:   12,
			items: []PriceItem{
				{UnitPrice: 25, Quantity: 4},
			},
			want: 2400,
		},
		{
			name:   "zero items zero cpu",
			months: 6,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePlanPrice(tt.cpuPrice, tt.months, tt.items)
			if got != tt.want {
				t.Errorf("ComputePlanPrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputePlanPriceNeverNegative(t *testing.T) {
	got := ComputePlanPrice(-500, 2, []PriceItem{{UnitPrice: 10, Quantity: 1}})
	if got < 0 {
		t.Errorf("ComputePlanPrice() = %v, want >= 0", got)
	}
}

func TestSetManualPrice(t *testing.T) {
	p := Plan{AutoPrice: true, Price: 50}
	if err := p.SetManualPrice(-1); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("SetManualPrice(-1) error = %v, want ErrInvalidPrice", err)
	}
	if !p.AutoPrice || p.Price != 50 {
		t.Errorf("failed SetManualPrice changed plan: %+v", p)
	}

	if err := p.SetManualPrice(75); err != nil {
		t.Fatalf("SetManualPrice(75) unexpected error: %v", err)
	}
	if p.AutoPrice {
		t.Error("manual price should disable auto pricing")
	}
	if p.Price != 75 {
		t.Errorf("price = %v, want 75", p.Price)
	}
}
