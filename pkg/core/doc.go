// Package core defines the shared language of the households system.
//
// This package contains:
//   - Domain entities (Household, Allocation, Bracket, Run)
//   - Model parameters (Parameters)
//   - Service interfaces (Store)
//   - Sentinel errors shared by the loader, model and CLI
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
