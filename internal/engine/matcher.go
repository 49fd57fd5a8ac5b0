// Package engine implements the read-only allocation matcher. It works
// on plain snapshot values so callers decide when and how to load them;
// nothing in this package touches the database.
package engine

import "github.com/cloudshop/backend/internal/models"

// GpuLine is one GPU requirement of a plan
type GpuLine struct {
	Model     string
	Frequency float64
	MemoryGB  int64 // per unit
	Quantity  int
}

// RamLine is one RAM requirement of a plan
type RamLine struct {
	Model      string
	CapacityGB int64 // per unit
	Quantity   int
}

// HdLine is one disk requirement of a plan
type HdLine struct {
	Model      string
	CapacityGB int64 // per unit
	IsSSD      bool
	Quantity   int
}

// PlanSpec is a plan's requirements resolved against the component
// catalog, in line-item declaration order.
type PlanSpec struct {
	PlanID   uint
	CpuCores int
	OsName   string
	Gpus     []GpuLine
	Rams     []RamLine
	Hds      []HdLine
}

// Demand is the aggregate capacity a plan needs from a server
type Demand struct {
	Cores int
	RamGB int64
	HdGB  int64
	SsdGB int64
}

// ComputeDemand folds a plan's line items into aggregate totals
func ComputeDemand(spec PlanSpec) Demand {
	d := Demand{Cores: spec.CpuCores}
	for _, r := range spec.Rams {
		d.RamGB += int64(r.Quantity) * r.CapacityGB
	}
	for _, h := range spec.Hds {
		gb := int64(h.Quantity) * h.CapacityGB
		if h.IsSSD {
			d.SsdGB += gb
		} else {
			d.HdGB += gb
		}
	}
	return d
}

// GpuAttachment is a snapshot of one ServerGpu row
type GpuAttachment struct {
	Model       string
	Frequency   float64
	AvailableGB int64
}

// ServerView is a snapshot of one server's spare capacity
type ServerView struct {
	ID             uint
	OsName         string
	CoresAvailable int
	RamAvailableGB int64
	HdAvailableGB  int64
	SsdAvailableGB int64
	Gpus           []GpuAttachment
}

// Match is one succeeding candidate plus the exact reservation that
// binding the plan to it would debit.
type Match struct {
	ServerID    uint
	Reservation models.Reservation
}

// matchGpus runs the GPU matching stage for one candidate. Line items
// are satisfied first-fit against the server's attachments in
// declaration order; usage accumulates per attachment so two line
// items sharing a GPU model never double-count its memory. Returns the
// reserved memory per attachment model, or ok=false if any line item
// went unsatisfied.
func matchGpus(attachments []GpuAttachment, lines []GpuLine) (map[string]int64, bool) {
	if len(lines) == 0 {
		return nil, true
	}
	used := make(map[string]int64)
	for _, line := range lines {
		need := int64(line.Quantity) * line.MemoryGB
		satisfied := false
		for _, att := range attachments {
			if att.Frequency != line.Frequency {
				continue
			}
			if att.AvailableGB-used[att.Model] >= need {
				used[att.Model] += need
				satisfied = true
				break
			}
		}
		if !satisfied {
			return nil, false
		}
	}
	return used, true
}

// FindServers returns every server that can satisfy spec, with the
// reservation each match would commit. exactServerID restricts the
// candidate set to one id (0 means no restriction); firstOnly stops at
// the first success. The input slices are never mutated.
func FindServers(servers []ServerView, spec PlanSpec, exactServerID uint, firstOnly bool) []Match {
	demand := ComputeDemand(spec)
	var matches []Match
	for _, srv := range servers {
		if exactServerID != 0 && srv.ID != exactServerID {
			continue
		}
		if srv.OsName != spec.OsName {
			continue
		}
		if srv.CoresAvailable < demand.Cores ||
			srv.RamAvailableGB < demand.RamGB ||
			srv.HdAvailableGB < demand.HdGB ||
			srv.SsdAvailableGB < demand.SsdGB {
			continue
		}
		used, ok := matchGpus(srv.Gpus, spec.Gpus)
		if !ok {
			continue
		}
		matches = append(matches, Match{
			ServerID: srv.ID,
			Reservation: models.Reservation{
				Cores:      demand.Cores,
				RamGB:      demand.RamGB,
				HdGB:       demand.HdGB,
				SsdGB:      demand.SsdGB,
				GpuByModel: used,
			},
		})
		if firstOnly {
			break
		}
	}
	return matches
}
