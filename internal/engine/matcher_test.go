package engine

import (
	"reflect"
	"testing"
)

func ramOnlyPlan(ramGB int64) PlanSpec {
	return PlanSpec{
		PlanID:   1,
		CpuCores: 2,
		OsName:   "ubuntu",
		Rams:     []RamLine{{Model: "R16", CapacityGB: ramGB, Quantity: 1}},
	}
}

func TestComputeDemand(t *testing.T) {
	spec := PlanSpec{
		CpuCores: 4,
		Rams: []RamLine{
			{Model: "R8", CapacityGB: 8, Quantity: 2},
			{Model: "R16", CapacityGB: 16, Quantity: 1},
		},
		Hds: []HdLine{
			{Model: "HDD-1T", CapacityGB: 1000, Quantity: 2},
			{Model: "SSD-500", CapacityGB: 500, IsSSD: true, Quantity: 1},
		},
	}
	d := ComputeDemand(spec)
	want := Demand{Cores: 4, RamGB: 32, HdGB: 2000, SsdGB: 500}
	if d != want {
		t.Errorf("ComputeDemand() = %+v, want %+v", d, want)
	}
}

func TestFindServersFiltersByCapacity(t *testing.T) {
	servers := []ServerView{
		{ID: 1, OsName: "ubuntu", CoresAvailable: 2, RamAvailableGB: 40},
		{ID: 2, OsName: "ubuntu", CoresAvailable: 2, RamAvailableGB: 8},
	}
	matches := FindServers(servers, ramOnlyPlan(16), 0, false)
	if len(matches) != 1 || matches[0].ServerID != 1 {
		t.Fatalf("got %d matches %+v, want only server 1", len(matches), matches)
	}
	if matches[0].Reservation.RamGB != 16 {
		t.Errorf("reservation ram = %d, want 16", matches[0].Reservation.RamGB)
	}
}

func TestFindServersFiltersByOs(t *testing.T) {
	servers := []ServerView{
		{ID: 1, OsName: "debian", CoresAvailable: 4, RamAvailableGB: 64},
	}
	if matches := FindServers(servers, ramOnlyPlan(16), 0, false); len(matches) != 0 {
		t.Errorf("matched server with wrong OS: %+v", matches)
	}
}

func TestFindServersExactID(t *testing.T) {
	servers := []ServerView{
		{ID: 1, OsName: "ubuntu", CoresAvailable: 4, RamAvailableGB: 64},
		{ID: 2, OsName: "ubuntu", CoresAvailable: 4, RamAvailableGB: 64},
	}
	matches := FindServers(servers, ramOnlyPlan(16), 2, false)
	if len(matches) != 1 || matches[0].ServerID != 2 {
		t.Errorf("exactServerID=2 returned %+v", matches)
	}
}

func TestFindServersFirstOnly(t *testing.T) {
	servers := []ServerView{
		{ID: 1, OsName: "ubuntu", CoresAvailable: 4, RamAvailableGB: 64},
		{ID: 2, OsName: "ubuntu", CoresAvailable: 4, RamAvailableGB: 64},
	}
	matches := FindServers(servers, ramOnlyPlan(16), 0, true)
	if len(matches) != 1 || matches[0].ServerID != 1 {
		t.Errorf("firstOnly returned %+v, want just server 1", matches)
	}
}

func TestGpuMatchingFrequency(t *testing.T) {
	spec := PlanSpec{
		CpuCores: 1,
		OsName:   "ubuntu",
		Gpus:     []GpuLine{{Model: "G-24", Frequency: 1.5, MemoryGB: 24, Quantity: 1}},
	}
	servers := []ServerView{
		{
			ID: 1, OsName: "ubuntu", CoresAvailable: 4,
			Gpus: []GpuAttachment{{Model: "G-SLOW", Frequency: 1.0, AvailableGB: 96}},
		},
		{
			ID: 2, OsName: "ubuntu", CoresAvailable: 4,
			Gpus: []GpuAttachment{{Model: "G-FAST", Frequency: 1.5, AvailableGB: 24}},
		},
	}
	matches := FindServers(servers, spec, 0, false)
	if len(matches) != 1 || matches[0].ServerID != 2 {
		t.Fatalf("got %+v, want only the frequency-compatible server 2", matches)
	}
	if matches[0].Reservation.GpuByModel["G-FAST"] != 24 {
		t.Errorf("gpu usage = %v, want G-FAST:24", matches[0].Reservation.GpuByModel)
	}
}

func TestGpuMatchingNoDoubleCount(t *testing.T) {
	// Two line items share one attachment with 40 GB free. Together they
	// need 48, so the attachment must not satisfy both.
	spec := PlanSpec{
		CpuCores: 1,
		OsName:   "ubuntu",
		Gpus: []GpuLine{
			{Model: "G-24", Frequency: 1.5, MemoryGB: 24, Quantity: 1},
			{Model: "G-24", Frequency: 1.5, MemoryGB: 24, Quantity: 1},
		},
	}
	tight := []ServerView{{
		ID: 1, OsName: "ubuntu", CoresAvailable: 4,
		Gpus: []GpuAttachment{{Model: "G-24", Frequency: 1.5, AvailableGB: 40}},
	}}
	if matches := FindServers(tight, spec, 0, false); len(matches) != 0 {
		t.Errorf("double-counted gpu memory: %+v", matches)
	}

	roomy := []ServerView{{
		ID: 1, OsName: "ubuntu", CoresAvailable: 4,
		Gpus: []GpuAttachment{{Model: "G-24", Frequency: 1.5, AvailableGB: 48}},
	}}
	matches := FindServers(roomy, spec, 0, false)
	if len(matches) != 1 {
		t.Fatalf("48 GB should satisfy both line items, got %+v", matches)
	}
	if matches[0].Reservation.GpuByModel["G-24"] != 48 {
		t.Errorf("cumulative usage = %v, want G-24:48", matches[0].Reservation.GpuByModel)
	}
}

func TestGpuMatchingFirstFit(t *testing.T) {
	// Both attachments could satisfy the line item; first-fit picks the
	// first in declaration order even though the second is a tighter fit.
	spec := PlanSpec{
		CpuCores: 1,
		OsName:   "ubuntu",
		Gpus:     []GpuLine{{Model: "G-16", Frequency: 1.5, MemoryGB: 16, Quantity: 1}},
	}
	servers := []ServerView{{
		ID: 1, OsName: "ubuntu", CoresAvailable: 4,
		Gpus: []GpuAttachment{
			{Model: "G-BIG", Frequency: 1.5, AvailableGB: 96},
			{Model: "G-SMALL", Frequency: 1.5, AvailableGB: 16},
		},
	}}
	matches := FindServers(servers, spec, 0, false)
	if len(matches) != 1 {
		t.Fatalf("no match: %+v", matches)
	}
	if matches[0].Reservation.GpuByModel["G-BIG"] != 16 {
		t.Errorf("first-fit should use G-BIG, usage = %v", matches[0].Reservation.GpuByModel)
	}
}

func TestPlanWithoutGpusSkipsGpuStage(t *testing.T) {
	servers := []ServerView{
		{ID: 1, OsName: "ubuntu", CoresAvailable: 4, RamAvailableGB: 64},
	}
	matches := FindServers(servers, ramOnlyPlan(16), 0, false)
	if len(matches) != 1 {
		t.Fatalf("plan without gpu line items should match: %+v", matches)
	}
	if matches[0].Reservation.GpuByModel != nil {
		t.Errorf("expected empty gpu usage, got %v", matches[0].Reservation.GpuByModel)
	}
}

func TestFindServersDoesNotMutateInput(t *testing.T) {
	servers := []ServerView{{
		ID: 1, OsName: "ubuntu", CoresAvailable: 4, RamAvailableGB: 64,
		Gpus: []GpuAttachment{{Model: "G-24", Frequency: 1.5, AvailableGB: 48}},
	}}
	spec := PlanSpec{
		CpuCores: 2,
		OsName:   "ubuntu",
		Rams:     []RamLine{{Model: "R16", CapacityGB: 16, Quantity: 1}},
		Gpus:     []GpuLine{{Model: "G-24", Frequency: 1.5, MemoryGB: 24, Quantity: 1}},
	}
	serversCopy := []ServerView{{
		ID: 1, OsName: "ubuntu", CoresAvailable: 4, RamAvailableGB: 64,
		Gpus: []GpuAttachment{{Model: "G-24", Frequency: 1.5, AvailableGB: 48}},
	}}

	FindServers(servers, spec, 0, false)

	if !reflect.DeepEqual(servers, serversCopy) {
		t.Errorf("matcher mutated its input: %+v", servers)
	}
	if len(spec.Gpus) != 1 || len(spec.Rams) != 1 {
		t.Errorf("matcher mutated the plan spec: %+v", spec)
	}
}
