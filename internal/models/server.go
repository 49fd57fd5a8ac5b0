package models

import "time"

// Server is one physical machine in the ledger. It owns exactly one CPU
// unit and three slot pools. Aggregate capacities are kept in native
// units: GPU memory GB, RAM GB and disk GB (SSD tracked separately).
type Server struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	CpuModel string `gorm:"column:cpu_model;size:100;not null" json:"cpu_model"`
	OsName   string `gorm:"column:os_name;size:100;not null" json:"os_name"`

	CoresAvailable int `gorm:"column:cores_available;not null" json:"cores_available"`

	GpuSlotTotal     int `gorm:"column:gpu_slot_total;not null" json:"gpu_slot_total"`
	GpuSlotAvailable int `gorm:"column:gpu_slot_available;not null" json:"gpu_slot_available"`
	RamSlotTotal     int `gorm:"column:ram_slot_total;not null" json:"ram_slot_total"`
	RamSlotAvailable int `gorm:"column:ram_slot_available;not null" json:"ram_slot_available"`
	HdSlotTotal      int `gorm:"column:hd_slot_total;not null" json:"hd_slot_total"`
	HdSlotAvailable  int `gorm:"column:hd_slot_available;not null" json:"hd_slot_available"`

	RamMax int64 `gorm:"column:ram_max;not null" json:"ram_max"` // GB, hard ceiling

	GpuTotal     int64 `gorm:"column:gpu_total;not null;default:0" json:"gpu_total"`
	GpuAvailable int64 `gorm:"column:gpu_available;not null;default:0" json:"gpu_available"`
	RamTotal     int64 `gorm:"column:ram_total;not null;default:0" json:"ram_total"`
	RamAvailable int64 `gorm:"column:ram_available;not null;default:0" json:"ram_available"`
	HdTotal      int64 `gorm:"column:hd_total;not null;default:0" json:"hd_total"`
	HdAvailable  int64 `gorm:"column:hd_available;not null;default:0" json:"hd_available"`
	SsdTotal     int64 `gorm:"column:ssd_total;not null;default:0" json:"ssd_total"`
	SsdAvailable int64 `gorm:"column:ssd_available;not null;default:0" json:"ssd_available"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// ServerGpu is one GPU model attached to a server. Capacities are GPU
// memory in GB.
type ServerGpu struct {
	ServerID          uint    `gorm:"column:server_id;primaryKey" json:"server_id"`
	GpuModel          string  `gorm:"column:gpu_model;primaryKey;size:100" json:"gpu_model"`
	Quantity          int     `gorm:"column:quantity;not null" json:"quantity"`
	TotalCapacity     int64   `gorm:"column:total_capacity;not null" json:"total_capacity"`
	AvailableCapacity int64   `gorm:"column:available_capacity;not null" json:"available_capacity"`
	Frequency         float64 `gorm:"column:frequency;not null" json:"frequency"`
}

// ServerRam is one RAM model attached to a server, capacities in GB
type ServerRam struct {
	ServerID          uint   `gorm:"column:server_id;primaryKey" json:"server_id"`
	RamModel          string `gorm:"column:ram_model;primaryKey;size:100" json:"ram_model"`
	Quantity          int    `gorm:"column:quantity;not null" json:"quantity"`
	TotalCapacity     int64  `gorm:"column:total_capacity;not null" json:"total_capacity"`
	AvailableCapacity int64  `gorm:"column:available_capacity;not null" json:"available_capacity"`
}

// ServerHd is one disk model attached to a server, capacities in GB
type ServerHd struct {
	ServerID          uint   `gorm:"column:server_id;primaryKey" json:"server_id"`
	HdModel           string `gorm:"column:hd_model;primaryKey;size:100" json:"hd_model"`
	Quantity          int    `gorm:"column:quantity;not null" json:"quantity"`
	TotalCapacity     int64  `gorm:"column:total_capacity;not null" json:"total_capacity"`
	AvailableCapacity int64  `gorm:"column:available_capacity;not null" json:"available_capacity"`
	IsSSD             bool   `gorm:"column:is_ssd;not null;default:false" json:"is_ssd"`
}

func (Server) TableName() string {
	return "servers"
}

func (ServerGpu) TableName() string {
	return "server_gpus"
}

func (ServerRam) TableName() string {
	return "server_rams"
}

func (ServerHd) TableName() string {
	return "server_hds"
}

// NewServer builds a server around one reserved CPU unit. The CPU unit
// is taken from inventory here; callers persist both rows together.
func NewServer(cpu *Cpu, osName string, ramSlotTotal int, ramMax int64, gpuSlotTotal, hdSlotTotal int) (*Server, error) {
	if ramSlotTotal < 0 || gpuSlotTotal < 0 || hdSlotTotal < 0 || ramMax < 0 {
		return nil, ErrInvalidQuantity
	}
	if cpu.Available < 1 {
		return nil, ErrNoCpuAvailable
	}
	if err := cpu.Reserve(1); err != nil {
		return nil, ErrNoCpuAvailable
	}
	return &Server{
		CpuModel:         cpu.Model,
		OsName:           osName,
		CoresAvailable:   cpu.Cores,
		GpuSlotTotal:     gpuSlotTotal,
		GpuSlotAvailable: gpuSlotTotal,
		RamSlotTotal:     ramSlotTotal,
		RamSlotAvailable: ramSlotTotal,
		HdSlotTotal:      hdSlotTotal,
		HdSlotAvailable:  hdSlotTotal,
		RamMax:           ramMax,
	}, nil
}

// AttachGpu installs qty units of gpu onto s. att is the existing
// attachment row for this model, or nil for a first attach; the
// returned row is the one to persist.
func (s *Server) AttachGpu(gpu *Gpu, qty int, att *ServerGpu) (*ServerGpu, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if s.GpuSlotAvailable < qty {
		return nil, ErrInsufficientSlots
	}
	if err := gpu.Reserve(qty); err != nil {
		return nil, err
	}
	capacity := int64(qty) * gpu.Memory
	if att == nil {
		att = &ServerGpu{ServerID: s.ID, GpuModel: gpu.Model, Frequency: gpu.Frequency}
	}
	att.Quantity += qty
	att.TotalCapacity += capacity
	att.AvailableCapacity += capacity
	s.GpuSlotAvailable -= qty
	s.GpuTotal += capacity
	s.GpuAvailable += capacity
	return att, nil
}

// DetachGpu removes a GPU attachment and returns its units to
// inventory. Blocked while any of its capacity is reserved.
func (s *Server) DetachGpu(gpu *Gpu, att *ServerGpu) error {
	if att.AvailableCapacity != att.TotalCapacity {
		return ErrComponentInUse
	}
	if err := gpu.Release(att.Quantity); err != nil {
		return err
	}
	s.GpuSlotAvailable += att.Quantity
	s.GpuTotal -= att.TotalCapacity
	s.GpuAvailable -= att.TotalCapacity
	return nil
}

// AttachRam installs qty units of ram onto s, subject to the server's
// RAM ceiling.
func (s *Server) AttachRam(ram *Ram, qty int, att *ServerRam) (*ServerRam, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if s.RamSlotAvailable < qty {
		return nil, ErrInsufficientSlots
	}
	capacity := int64(qty) * ram.Capacity
	if s.RamTotal+capacity > s.RamMax {
		return nil, ErrRamCeilingExceeded
	}
	if err := ram.Reserve(qty); err != nil {
		return nil, err
	}
	if att == nil {
		att = &ServerRam{ServerID: s.ID, RamModel: ram.Model}
	}
	att.Quantity += qty
	att.TotalCapacity += capacity
	att.AvailableCapacity += capacity
	s.RamSlotAvailable -= qty
	s.RamTotal += capacity
	s.RamAvailable += capacity
	return att, nil
}

// DetachRam removes a RAM attachment and returns its units to inventory
func (s *Server) DetachRam(ram *Ram, att *ServerRam) error {
	if att.AvailableCapacity != att.TotalCapacity {
		return ErrComponentInUse
	}
	if err := ram.Release(att.Quantity); err != nil {
		return err
	}
	s.RamSlotAvailable += att.Quantity
	s.RamTotal -= att.TotalCapacity
	s.RamAvailable -= att.TotalCapacity
	return nil
}

// AttachHd installs qty units of hd onto s. SSD capacity is tracked in
// the SSD aggregates, spinning disks in the HD aggregates.
func (s *Server) AttachHd(hd *Hd, qty int, att *ServerHd) (*ServerHd, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if s.HdSlotAvailable < qty {
		return nil, ErrInsufficientSlots
	}
	if err := hd.Reserve(qty); err != nil {
		return nil, err
	}
	capacity := int64(qty) * hd.Capacity
	if att == nil {
		att = &ServerHd{ServerID: s.ID, HdModel: hd.Model, IsSSD: hd.IsSSD}
	}
	att.Quantity += qty
	att.TotalCapacity += capacity
	att.AvailableCapacity += capacity
	s.HdSlotAvailable -= qty
	if hd.IsSSD {
		s.SsdTotal += capacity
		s.SsdAvailable += capacity
	} else {
		s.HdTotal += capacity
		s.HdAvailable += capacity
	}
	return att, nil
}

// DetachHd removes a disk attachment and returns its units to inventory
func (s *Server) DetachHd(hd *Hd, att *ServerHd) error {
	if att.AvailableCapacity != att.TotalCapacity {
		return ErrComponentInUse
	}
	if err := hd.Release(att.Quantity); err != nil {
		return err
	}
	s.HdSlotAvailable += att.Quantity
	if att.IsSSD {
		s.SsdTotal -= att.TotalCapacity
		s.SsdAvailable -= att.TotalCapacity
	} else {
		s.HdTotal -= att.TotalCapacity
		s.HdAvailable -= att.TotalCapacity
	}
	return nil
}

// ChangeCpu swaps the server's CPU for another model. Cores already
// reserved by bound subscriptions carry over; the swap is rejected if
// the new model cannot cover them.
func (s *Server) ChangeCpu(oldCpu, newCpu *Cpu) error {
	coresUsed := oldCpu.Cores - s.CoresAvailable
	if newCpu.Cores-coresUsed < 0 {
		return ErrInsufficientCores
	}
	if newCpu.Available < 1 {
		return ErrNoCpuAvailable
	}
	if err := newCpu.Reserve(1); err != nil {
		return ErrNoCpuAvailable
	}
	if err := oldCpu.Release(1); err != nil {
		return err
	}
	s.CpuModel = newCpu.Model
	s.CoresAvailable = newCpu.Cores - coresUsed
	return nil
}

// CheckInvariants verifies the ledger's consistency rules against the
// server's attachment rows.
func (s *Server) CheckInvariants(gpus []ServerGpu, rams []ServerRam, hds []ServerHd) error {
	gpuQty, ramQty, hdQty := 0, 0, 0
	for _, a := range gpus {
		if a.AvailableCapacity < 0 || a.AvailableCapacity > a.TotalCapacity {
			return ErrInsufficientCapacity
		}
		gpuQty += a.Quantity
	}
	for _, a := range rams {
		if a.AvailableCapacity < 0 || a.AvailableCapacity > a.TotalCapacity {
			return ErrInsufficientCapacity
		}
		ramQty += a.Quantity
	}
	for _, a := range hds {
		if a.AvailableCapacity < 0 || a.AvailableCapacity > a.TotalCapacity {
			return ErrInsufficientCapacity
		}
		hdQty += a.Quantity
	}
	if s.GpuSlotAvailable != s.GpuSlotTotal-gpuQty ||
		s.RamSlotAvailable != s.RamSlotTotal-ramQty ||
		s.HdSlotAvailable != s.HdSlotTotal-hdQty {
		return ErrInsufficientSlots
	}
	if s.RamTotal > s.RamMax {
		return ErrRamCeilingExceeded
	}
	if s.GpuAvailable < 0 || s.GpuAvailable > s.GpuTotal ||
		s.RamAvailable < 0 || s.RamAvailable > s.RamTotal ||
		s.HdAvailable < 0 || s.HdAvailable > s.HdTotal ||
		s.SsdAvailable < 0 || s.SsdAvailable > s.SsdTotal ||
		s.CoresAvailable < 0 {
		return ErrInsufficientCapacity
	}
	return nil
}
