package models

import (
	"errors"
	"testing"
)

func TestStockRestock(t *testing.T) {
	tests := []struct {
		name          string
		start         Stock
		delta         int
		wantErr       error
		wantTotal     int
		wantAvailable int
	}{
		{
			name:          "first restock sets available to total",
			start:         Stock{},
			delta:         10,
			wantTotal:     10,
			wantAvailable: 10,
		},
		{
			name:          "restock adds to both counters",
			start:         Stock{Total: 10, Available: 4},
			delta:         5,
			wantTotal:     15,
			wantAvailable: 9,
		},
		{
			name:          "negative delta removes unsold stock",
			start:         Stock{Total: 10, Available: 4},
			delta:         -3,
			wantTotal:     7,
			wantAvailable: 1,
		},
		{
			name:    "cannot remove reserved stock",
			start:   Stock{Total: 10, Available: 4},
			delta:   -5,
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "cannot go below zero total",
			start:   Stock{Total: 3, Available: 3},
			delta:   -4,
			wantErr: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.start
			err := s.Restock(tt.delta)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Restock(%d) error = %v, want %v", tt.delta, err, tt.wantErr)
				}
				if s != tt.start {
					t.Errorf("failed restock changed state: %+v", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("Restock(%d) unexpected error: %v", tt.delta, err)
			}
			if s.Total != tt.wantTotal || s.Available != tt.wantAvailable {
				t.Errorf("got total=%d available=%d, want total=%d available=%d",
					s.Total, s.Available, tt.wantTotal, tt.wantAvailable)
			}
		})
	}
}

func TestStockReserveRelease(t *testing.T) {
	s := Stock{Total: 10, Available: 10}

	if err := s.Reserve(4); err != nil {
		t.Fatalf("Reserve(4) unexpected error: %v", err)
	}
	if s.Available != 6 {
		t.Errorf("after Reserve(4): available = %d, want 6", s.Available)
	}

	if err := s.Reserve(7); !errors.Is(err, ErrInsufficientCapacity) {
		t.Errorf("Reserve(7) error = %v, want ErrInsufficientCapacity", err)
	}
	if s.Available != 6 {
		t.Errorf("failed reserve changed available to %d", s.Available)
	}

	if err := s.Reserve(0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Reserve(0) error = %v, want ErrInvalidQuantity", err)
	}

	if err := s.Release(4); err != nil {
		t.Fatalf("Release(4) unexpected error: %v", err)
	}
	if s.Available != 10 {
		t.Errorf("after Release(4): available = %d, want 10", s.Available)
	}

	if err := s.Release(1); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Release above total error = %v, want ErrInvalidQuantity", err)
	}
}

func TestStockInvariantUnderSequence(t *testing.T) {
	s := Stock{}
	ops := []func() error{
		func() error { return s.Restock(10) },
		func() error { return s.Reserve(6) },
		func() error { return s.Restock(5) },
		func() error { return s.Release(3) },
		func() error { return s.Reserve(9) },
		func() error { return s.Restock(-2) },
		func() error { return s.Release(12) },
	}
	for i, op := range ops {
		op()
		if s.Available < 0 || s.Available > s.Total {
			t.Fatalf("after op %d: available=%d total=%d violates 0 <= available <= total", i, s.Available, s.Total)
		}
	}
}

func TestStockSetPrice(t *testing.T) {
	s := Stock{Price: 10}
	if err := s.SetPrice(-1); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("SetPrice(-1) error = %v, want ErrInvalidPrice", err)
	}
	if s.Price != 10 {
		t.Errorf("failed SetPrice changed price to %v", s.Price)
	}
	if err := s.SetPrice(25.5); err != nil {
		t.Fatalf("SetPrice(25.5) unexpected error: %v", err)
	}
	if s.Price != 25.5 {
		t.Errorf("price = %v, want 25.5", s.Price)
	}
}
