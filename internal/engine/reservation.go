package engine

import "github.com/cloudshop/backend/internal/models"

// ApplyReservation debits r from a server and its GPU attachment rows.
// Fails without partial writes when the server no longer has the
// capacity the matcher saw, so callers inside a transaction can retry
// the match.
func ApplyReservation(srv *models.Server, gpus map[string]*models.ServerGpu, r models.Reservation) error {
	if srv.CoresAvailable < r.Cores ||
		srv.RamAvailable < r.RamGB ||
		srv.HdAvailable < r.HdGB ||
		srv.SsdAvailable < r.SsdGB {
		return models.ErrInsufficientCapacity
	}
	for model, gb := range r.GpuByModel {
		att, ok := gpus[model]
		if !ok || att.AvailableCapacity < gb {
			return models.ErrInsufficientCapacity
		}
	}
	srv.CoresAvailable -= r.Cores
	srv.RamAvailable -= r.RamGB
	srv.HdAvailable -= r.HdGB
	srv.SsdAvailable -= r.SsdGB
	for model, gb := range r.GpuByModel {
		gpus[model].AvailableCapacity -= gb
		srv.GpuAvailable -= gb
	}
	return nil
}

// CreditReservation is the exact mirror of ApplyReservation, used on
// release and reassignment.
func CreditReservation(srv *models.Server, gpus map[string]*models.ServerGpu, r models.Reservation) error {
	if srv.RamAvailable+r.RamGB > srv.RamTotal ||
		srv.HdAvailable+r.HdGB > srv.HdTotal ||
		srv.SsdAvailable+r.SsdGB > srv.SsdTotal {
		return models.ErrInvalidQuantity
	}
	for model, gb := range r.GpuByModel {
		att, ok := gpus[model]
		if !ok || att.AvailableCapacity+gb > att.TotalCapacity {
			return models.ErrInvalidQuantity
		}
	}
	srv.CoresAvailable += r.Cores
	srv.RamAvailable += r.RamGB
	srv.HdAvailable += r.HdGB
	srv.SsdAvailable += r.SsdGB
	for model, gb := range r.GpuByModel {
		gpus[model].AvailableCapacity += gb
		srv.GpuAvailable += gb
	}
	return nil
}
