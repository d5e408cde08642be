// Package jarvistypes defines the core types and interfaces shared across JARVIS.
// This file contains the fundamental interfaces that tie the system together: services,
// the service registry, and the mode flag consulted by deterministic helpers.
package jarvistypes

// Service defines the interface for JARVIS services that provide specific functionality.
// Services are registered with a registry at startup and initialized once before use.
type Service interface {
	Name() string
	Initialize() error
}

// ServiceRegistry provides access to registered services by name.
type ServiceRegistry interface {
	GetService(name string) (Service, error)
	RegisterService(service Service) error
}

// ModeProvider reports whether the process runs in deterministic test mode.
// In test mode identifiers and timestamps are generated from counters instead of randomness.
type ModeProvider interface {
	IsTestMode() bool
}

// StaticMode is a ModeProvider with a fixed answer.
type StaticMode bool

// IsTestMode returns the fixed mode value.
func (m StaticMode) IsTestMode() bool {
	return bool(m)
}
