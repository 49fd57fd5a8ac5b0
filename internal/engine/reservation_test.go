package engine

import (
	"errors"
	"testing"

	"github.com/cloudshop/backend/internal/models"
)

func testServer() (*models.Server, map[string]*models.ServerGpu) {
	srv := &models.Server{
		ID:             1,
		CoresAvailable: 2,
		RamTotal:       40,
		RamAvailable:   40,
		HdTotal:        2000,
		HdAvailable:    2000,
		SsdTotal:       500,
		SsdAvailable:   500,
		GpuTotal:       48,
		GpuAvailable:   48,
	}
	gpus := map[string]*models.ServerGpu{
		"G-24": {ServerID: 1, GpuModel: "G-24", Quantity: 2, TotalCapacity: 48, AvailableCapacity: 48, Frequency: 1.5},
	}
	return srv, gpus
}

func TestApplyReservation(t *testing.T) {
	srv, gpus := testServer()
	r := models.Reservation{
		Cores: 2,
		RamGB: 16,
		HdGB:  1000,
		SsdGB: 500,
		GpuByModel: map[string]int64{
			"G-24": 24,
		},
	}

	if err := ApplyReservation(srv, gpus, r); err != nil {
		t.Fatalf("ApplyReservation unexpected error: %v", err)
	}
	if srv.CoresAvailable != 0 || srv.RamAvailable != 24 || srv.HdAvailable != 1000 || srv.SsdAvailable != 0 {
		t.Errorf("debit wrong: cores=%d ram=%d hd=%d ssd=%d", srv.CoresAvailable, srv.RamAvailable, srv.HdAvailable, srv.SsdAvailable)
	}
	if gpus["G-24"].AvailableCapacity != 24 || srv.GpuAvailable != 24 {
		t.Errorf("gpu debit wrong: attachment=%d server=%d", gpus["G-24"].AvailableCapacity, srv.GpuAvailable)
	}
}

func TestApplyReservationInsufficient(t *testing.T) {
	srv, gpus := testServer()
	r := models.Reservation{RamGB: 48}

	before := *srv
	if err := ApplyReservation(srv, gpus, r); !errors.Is(err, models.ErrInsufficientCapacity) {
		t.Fatalf("error = %v, want ErrInsufficientCapacity", err)
	}
	if *srv != before {
		t.Errorf("failed apply changed server state")
	}
}

func TestApplyReservationUnknownGpuModel(t *testing.T) {
	srv, gpus := testServer()
	r := models.Reservation{GpuByModel: map[string]int64{"G-MISSING": 8}}

	if err := ApplyReservation(srv, gpus, r); !errors.Is(err, models.ErrInsufficientCapacity) {
		t.Errorf("error = %v, want ErrInsufficientCapacity", err)
	}
	if gpus["G-24"].AvailableCapacity != 48 {
		t.Errorf("failed apply touched other attachments")
	}
}

func TestReservationRoundTrip(t *testing.T) {
	srv, gpus := testServer()
	original := *srv
	originalGpu := *gpus["G-24"]
	r := models.Reservation{
		Cores: 1,
		RamGB: 16,
		HdGB:  500,
		GpuByModel: map[string]int64{
			"G-24": 48,
		},
	}

	if err := ApplyReservation(srv, gpus, r); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := CreditReservation(srv, gpus, r); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if *srv != original {
		t.Errorf("round trip did not restore server: got %+v, want %+v", *srv, original)
	}
	if *gpus["G-24"] != originalGpu {
		t.Errorf("round trip did not restore attachment: got %+v, want %+v", *gpus["G-24"], originalGpu)
	}
}

func TestCreditReservationOverflow(t *testing.T) {
	srv, gpus := testServer()
	r := models.Reservation{RamGB: 8}

	// Nothing was debited, crediting would push available past total
	if err := CreditReservation(srv, gpus, r); !errors.Is(err, models.ErrInvalidQuantity) {
		t.Errorf("error = %v, want ErrInvalidQuantity", err)
	}
	if srv.RamAvailable != 40 {
		t.Errorf("failed credit changed ramAvailable to %d", srv.RamAvailable)
	}
}

// Purchase debits the matched server; a renewal must not touch it again.
func TestPurchaseThenRenewalArithmetic(t *testing.T) {
	srv, gpus := testServer()
	spec := ramOnlyPlan(16)

	view := ServerView{
		ID:             srv.ID,
		OsName:         "ubuntu",
		CoresAvailable: srv.CoresAvailable,
		RamAvailableGB: srv.RamAvailable,
		HdAvailableGB:  srv.HdAvailable,
		SsdAvailableGB: srv.SsdAvailable,
	}
	matches := FindServers([]ServerView{view}, spec, 0, true)
	if len(matches) != 1 {
		t.Fatalf("no match for purchase: %+v", matches)
	}

	if err := ApplyReservation(srv, gpus, matches[0].Reservation); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if srv.RamAvailable != 24 {
		t.Errorf("after purchase: ramAvailable = %d, want 24", srv.RamAvailable)
	}

	// Release then rebind with the same reservation restores the same
	// ledger values.
	if err := CreditReservation(srv, gpus, matches[0].Reservation); err != nil {
		t.Fatalf("release: %v", err)
	}
	if srv.RamAvailable != 40 {
		t.Errorf("after release: ramAvailable = %d, want 40", srv.RamAvailable)
	}
	if err := ApplyReservation(srv, gpus, matches[0].Reservation); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if srv.RamAvailable != 24 {
		t.Errorf("after rebind: ramAvailable = %d, want 24", srv.RamAvailable)
	}
}
