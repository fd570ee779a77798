// Package backend builds the summary export target selected by
// EXPORT_BACKEND.
package backend

import (
	"context"

	"backoffice/internal/sheets"
)

// Type names an export backend.
type Type string

const (
	SheetsBackend Type = "sheets"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Exporter is both ends of an export target: the worker writes rows and
// startup checks list them.
type Exporter interface {
	sheets.SummaryWriter
	sheets.SummaryLister
}

// Result holds the created exporter and its cleanup function, if any.
type Result struct {
	Exporter Exporter
	Type     Type
	Cleanup  func() error
}

// Factory creates export backends.
type Factory interface {
	Create(ctx context.Context, cfg Config) (*Result, error)
}
