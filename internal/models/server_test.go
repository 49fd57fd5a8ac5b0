package models

import (
	"errors"
	"testing"
)

func newTestCpu() *Cpu {
	return &Cpu{
		Model: "CPU-2C",
		Stock: Stock{Price: 100, Total: 10, Available: 10},
		Cores: 2,
	}
}

func TestNewServer(t *testing.T) {
	cpu := newTestCpu()
	srv, err := NewServer(cpu, "ubuntu", 10, 160, 10, 100)
	if err != nil {
		t.Fatalf("NewServer unexpected error: %v", err)
	}

	if srv.CoresAvailable != 2 {
		t.Errorf("coresAvailable = %d, want 2", srv.CoresAvailable)
	}
	if srv.RamSlotAvailable != 10 {
		t.Errorf("ramSlotAvailable = %d, want 10", srv.RamSlotAvailable)
	}
	if cpu.Available != 9 {
		t.Errorf("cpu.available = %d, want 9 after reserving one unit", cpu.Available)
	}
	if err := srv.CheckInvariants(nil, nil, nil); err != nil {
		t.Errorf("fresh server violates invariants: %v", err)
	}
}

func TestNewServerNoCpuStock(t *testing.T) {
	cpu := newTestCpu()
	cpu.Available = 0
	if _, err := NewServer(cpu, "ubuntu", 10, 160, 10, 100); !errors.Is(err, ErrNoCpuAvailable) {
		t.Errorf("NewServer error = %v, want ErrNoCpuAvailable", err)
	}
}

func TestAttachRam(t *testing.T) {
	cpu := newTestCpu()
	srv, err := NewServer(cpu, "ubuntu", 10, 160, 10, 100)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ram := &Ram{
		Model:    "R8",
		Stock:    Stock{Price: 20, Total: 10, Available: 10},
		Capacity: 8,
	}

	att, err := srv.AttachRam(ram, 5, nil)
	if err != nil {
		t.Fatalf("AttachRam(5) unexpected error: %v", err)
	}
	if srv.RamAvailable != 40 {
		t.Errorf("ramAvailable = %d, want 40", srv.RamAvailable)
	}
	if ram.Available != 5 {
		t.Errorf("ram.available = %d, want 5", ram.Available)
	}
	if srv.RamSlotAvailable != 5 {
		t.Errorf("ramSlotAvailable = %d, want 5", srv.RamSlotAvailable)
	}

	// Only 5 slots remain
	before := *srv
	if _, err := srv.AttachRam(ram, 6, att); !errors.Is(err, ErrInsufficientSlots) {
		t.Fatalf("AttachRam(6) error = %v, want ErrInsufficientSlots", err)
	}
	if *srv != before {
		t.Errorf("failed attach changed server state")
	}

	if err := srv.CheckInvariants(nil, []ServerRam{*att}, nil); err != nil {
		t.Errorf("invariants violated after attach: %v", err)
	}
}

func TestAttachRamCeiling(t *testing.T) {
	cpu := newTestCpu()
	srv, err := NewServer(cpu, "ubuntu", 10, 32, 10, 100)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ram := &Ram{
		Model:    "R16",
		Stock:    Stock{Total: 10, Available: 10},
		Capacity: 16,
	}

	att, err := srv.AttachRam(ram, 2, nil)
	if err != nil {
		t.Fatalf("AttachRam(2) unexpected error: %v", err)
	}
	if srv.RamTotal != 32 {
		t.Errorf("ramTotal = %d, want 32", srv.RamTotal)
	}

	if _, err := srv.AttachRam(ram, 1, att); !errors.Is(err, ErrRamCeilingExceeded) {
		t.Errorf("attach past ceiling error = %v, want ErrRamCeilingExceeded", err)
	}
	if ram.Available != 8 {
		t.Errorf("failed attach debited inventory: available = %d, want 8", ram.Available)
	}
}

func TestDetachRam(t *testing.T) {
	cpu := newTestCpu()
	srv, _ := NewServer(cpu, "ubuntu", 10, 160, 10, 100)
	ram := &Ram{
		Model:    "R8",
		Stock:    Stock{Total: 10, Available: 10},
		Capacity: 8,
	}
	att, err := srv.AttachRam(ram, 4, nil)
	if err != nil {
		t.Fatalf("AttachRam: %v", err)
	}

	// Simulate a bound subscription reserving 8 GB
	att.AvailableCapacity -= 8
	srv.RamAvailable -= 8
	if err := srv.DetachRam(ram, att); !errors.Is(err, ErrComponentInUse) {
		t.Fatalf("detach with reserved capacity error = %v, want ErrComponentInUse", err)
	}

	// Release the reservation, detach succeeds
	att.AvailableCapacity += 8
	srv.RamAvailable += 8
	if err := srv.DetachRam(ram, att); err != nil {
		t.Fatalf("DetachRam unexpected error: %v", err)
	}
	if ram.Available != 10 {
		t.Errorf("ram.available = %d, want 10 after detach", ram.Available)
	}
	if srv.RamSlotAvailable != 10 || srv.RamTotal != 0 {
		t.Errorf("server ledger not restored: slotAvailable=%d ramTotal=%d", srv.RamSlotAvailable, srv.RamTotal)
	}
}

func TestAttachHdSplitsSsd(t *testing.T) {
	cpu := newTestCpu()
	srv, _ := NewServer(cpu, "ubuntu", 10, 160, 10, 100)
	hdd := &Hd{Model: "HDD-1T", Stock: Stock{Total: 20, Available: 20}, Capacity: 1000}
	ssd := &Hd{Model: "SSD-500", Stock: Stock{Total: 20, Available: 20}, Capacity: 500, IsSSD: true}

	if _, err := srv.AttachHd(hdd, 2, nil); err != nil {
		t.Fatalf("AttachHd hdd: %v", err)
	}
	if _, err := srv.AttachHd(ssd, 3, nil); err != nil {
		t.Fatalf("AttachHd ssd: %v", err)
	}

	if srv.HdAvailable != 2000 || srv.SsdAvailable != 1500 {
		t.Errorf("hdAvailable=%d ssdAvailable=%d, want 2000 and 1500", srv.HdAvailable, srv.SsdAvailable)
	}
	if srv.HdSlotAvailable != 95 {
		t.Errorf("hdSlotAvailable = %d, want 95", srv.HdSlotAvailable)
	}
}

func TestAttachGpu(t *testing.T) {
	cpu := newTestCpu()
	srv, _ := NewServer(cpu, "ubuntu", 10, 160, 10, 100)
	gpu := &Gpu{
		Model:     "G-24",
		Stock:     Stock{Total: 8, Available: 8},
		Frequency: 1.5,
		Memory:    24,
	}

	att, err := srv.AttachGpu(gpu, 2, nil)
	if err != nil {
		t.Fatalf("AttachGpu: %v", err)
	}
	if att.TotalCapacity != 48 || att.AvailableCapacity != 48 {
		t.Errorf("attachment capacity = %d/%d, want 48/48", att.AvailableCapacity, att.TotalCapacity)
	}
	if att.Frequency != 1.5 {
		t.Errorf("attachment frequency = %v, want 1.5", att.Frequency)
	}
	if srv.GpuAvailable != 48 || srv.GpuSlotAvailable != 8 {
		t.Errorf("gpuAvailable=%d gpuSlotAvailable=%d, want 48 and 8", srv.GpuAvailable, srv.GpuSlotAvailable)
	}
	if gpu.Available != 6 {
		t.Errorf("gpu.available = %d, want 6", gpu.Available)
	}
}

func TestChangeCpu(t *testing.T) {
	oldCpu := newTestCpu()
	srv, _ := NewServer(oldCpu, "ubuntu", 10, 160, 10, 100)

	// Both cores reserved by bound subscriptions
	srv.CoresAvailable = 0

	small := &Cpu{Model: "CPU-1C", Stock: Stock{Total: 5, Available: 5}, Cores: 1}
	big := &Cpu{Model: "CPU-8C", Stock: Stock{Total: 5, Available: 5}, Cores: 8}

	if err := srv.ChangeCpu(oldCpu, small); !errors.Is(err, ErrInsufficientCores) {
		t.Errorf("downgrade below used cores error = %v, want ErrInsufficientCores", err)
	}
	if srv.CpuModel != "CPU-2C" || small.Available != 5 {
		t.Errorf("failed downgrade changed state: cpuModel=%s small.available=%d", srv.CpuModel, small.Available)
	}

	if err := srv.ChangeCpu(oldCpu, big); err != nil {
		t.Fatalf("ChangeCpu unexpected error: %v", err)
	}
	if srv.CpuModel != "CPU-8C" {
		t.Errorf("cpuModel = %s, want CPU-8C", srv.CpuModel)
	}
	if srv.CoresAvailable != 6 {
		t.Errorf("coresAvailable = %d, want 6 (8 minus 2 used)", srv.CoresAvailable)
	}
	if oldCpu.Available != 10 {
		t.Errorf("old cpu not released: available = %d, want 10", oldCpu.Available)
	}
	if big.Available != 4 {
		t.Errorf("new cpu not reserved: available = %d, want 4", big.Available)
	}
}

func TestChangeCpuDowngradeToExactUsedCores(t *testing.T) {
	oldCpu := newTestCpu()
	srv, _ := NewServer(oldCpu, "ubuntu", 10, 160, 10, 100)

	// One of two cores reserved; a 1-core model still covers it exactly
	srv.CoresAvailable = 1

	small := &Cpu{Model: "CPU-1C", Stock: Stock{Total: 5, Available: 5}, Cores: 1}
	if err := srv.ChangeCpu(oldCpu, small); err != nil {
		t.Fatalf("downgrade to exact used cores should succeed: %v", err)
	}
	if srv.CoresAvailable != 0 {
		t.Errorf("coresAvailable = %d, want 0", srv.CoresAvailable)
	}
	if oldCpu.Available != 10 || small.Available != 4 {
		t.Errorf("inventory wrong after swap: old=%d small=%d", oldCpu.Available, small.Available)
	}
}

func TestChangeCpuNoStock(t *testing.T) {
	oldCpu := newTestCpu()
	srv, _ := NewServer(oldCpu, "ubuntu", 10, 160, 10, 100)
	next := &Cpu{Model: "CPU-4C", Stock: Stock{Total: 2, Available: 0}, Cores: 4}

	if err := srv.ChangeCpu(oldCpu, next); !errors.Is(err, ErrNoCpuAvailable) {
		t.Errorf("ChangeCpu error = %v, want ErrNoCpuAvailable", err)
	}
}

func TestCheckInvariantsDetectsSlotDrift(t *testing.T) {
	cpu := newTestCpu()
	srv, _ := NewServer(cpu, "ubuntu", 10, 160, 10, 100)
	ram := &Ram{Model: "R8", Stock: Stock{Total: 10, Available: 10}, Capacity: 8}
	att, _ := srv.AttachRam(ram, 3, nil)

	srv.RamSlotAvailable = 9 // should be 7
	if err := srv.CheckInvariants(nil, []ServerRam{*att}, nil); err == nil {
		t.Error("CheckInvariants accepted inconsistent slot count")
	}
}
