package models

import "errors"

// Capacity and validation errors returned by the allocation engine.
// All mutating operations are transactional: when one of these is
// returned the ledgers are exactly as they were before the call.
var (
	ErrInvalidQuantity      = errors.New("quantity is invalid")
	ErrInvalidPrice         = errors.New("price cannot be negative")
	ErrInsufficientCapacity = errors.New("insufficient component capacity")
	ErrInsufficientSlots    = errors.New("insufficient free slots")
	ErrInsufficientCores    = errors.New("insufficient cpu cores")
	ErrRamCeilingExceeded   = errors.New("server ram ceiling exceeded")
	ErrComponentInUse       = errors.New("component has active reservations")
	ErrNoCpuAvailable       = errors.New("no cpu units available")
	ErrNoServerAvailable    = errors.New("no server can satisfy the plan")
	ErrServerIncompatible   = errors.New("server cannot satisfy the plan")
	ErrAllocationTimeout    = errors.New("allocation timed out waiting for locks")
	ErrNotFound             = errors.New("record not found")
)
