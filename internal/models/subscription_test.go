package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestSubscriptionRenew(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	sub := Subscription{
		Status:    SubscriptionBound,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
	}

	if err := sub.Renew(3); err != nil {
		t.Fatalf("Renew(3) unexpected error: %v", err)
	}
	want := start.AddDate(0, 4, 0)
	if !sub.EndDate.Equal(want) {
		t.Errorf("endDate = %v, want %v", sub.EndDate, want)
	}
	if sub.Status != SubscriptionRenewed {
		t.Errorf("status = %s, want renewed", sub.Status)
	}
	if !sub.StartDate.Equal(start) {
		t.Errorf("renewal moved startDate to %v", sub.StartDate)
	}

	if err := sub.Renew(0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Renew(0) error = %v, want ErrInvalidQuantity", err)
	}
}

func TestSubscriptionActive(t *testing.T) {
	now := time.Now()
	serverID := uint(1)
	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{
			name: "bound with future end date",
			sub:  Subscription{Status: SubscriptionBound, ServerID: &serverID, EndDate: now.AddDate(0, 1, 0)},
			want: true,
		},
		{
			name: "bound but past end date",
			sub:  Subscription{Status: SubscriptionBound, ServerID: &serverID, EndDate: now.AddDate(0, -1, 0)},
			want: false,
		},
		{
			name: "released",
			sub:  Subscription{Status: SubscriptionReleased, EndDate: now.AddDate(0, 1, 0)},
			want: false,
		},
		{
			name: "expired",
			sub:  Subscription{Status: SubscriptionExpired, EndDate: now.AddDate(0, 1, 0)},
			want: false,
		},
		{
			name: "reassigned still active",
			sub:  Subscription{Status: SubscriptionReassigned, ServerID: &serverID, EndDate: now.AddDate(0, 1, 0)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.Active(now); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReservationJSONRoundTrip(t *testing.T) {
	r := Reservation{
		Cores: 2,
		RamGB: 16,
		HdGB:  1000,
		SsdGB: 500,
		GpuByModel: map[string]int64{
			"G-24": 48,
			"G-16": 16,
		},
	}

	value, err := r.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	raw, ok := value.([]byte)
	if !ok {
		t.Fatalf("Value() returned %T, want []byte", value)
	}

	var back Reservation
	if err := back.Scan(raw); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if back.Cores != r.Cores || back.RamGB != r.RamGB || back.HdGB != r.HdGB || back.SsdGB != r.SsdGB {
		t.Errorf("scalar fields lost: got %+v, want %+v", back, r)
	}
	if len(back.GpuByModel) != 2 || back.GpuByModel["G-24"] != 48 || back.GpuByModel["G-16"] != 16 {
		t.Errorf("gpu map lost: got %v", back.GpuByModel)
	}

	// Must also survive a plain JSON encode of the subscription row
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Errorf("stored value is not valid JSON: %v", err)
	}
}

func TestSubscriptionUserPlanUnique(t *testing.T) {
	// Concurrent first purchases for the same (user, plan) pair must
	// collide on a single database constraint, not create two rows.
	typ := reflect.TypeOf(Subscription{})
	for _, fieldName := range []string{"UserID", "PlanID"} {
		field, ok := typ.FieldByName(fieldName)
		if !ok {
			t.Fatalf("Subscription has no field %s", fieldName)
		}
		tag := field.Tag.Get("gorm")
		if !strings.Contains(tag, "uniqueIndex:idx_user_plan") {
			t.Errorf("%s gorm tag %q missing uniqueIndex:idx_user_plan", fieldName, tag)
		}
	}
}

func TestReservationScanNil(t *testing.T) {
	r := Reservation{Cores: 4}
	if err := r.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if r.Cores != 0 {
		t.Errorf("Scan(nil) should zero the reservation, got %+v", r)
	}
}
