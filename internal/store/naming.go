package store

import (
	"fmt"

	"github.com/google/uuid"
)

// Record suffixes appended to a Naming base.
const (
	JSONSuffix = ".json"
	RawSuffix  = ".raw.txt"
)

// Naming derives the base record name for a zero-based work-item index.
type Naming interface {
	Base(index int) string
}

// IndexNaming names records from the 1-based index, zero-padded: 001_doc.
type IndexNaming struct{}

func (IndexNaming) Base(index int) string {
	return fmt.Sprintf("%03d_doc", index+1)
}

// RandomNaming names records with a fresh random UUID.
type RandomNaming struct {
	newID func() string
}

func (r RandomNaming) Base(int) string {
	if r.newID != nil {
		return r.newID()
	}
	return uuid.NewString()
}

// NamingFor maps a config naming strategy to a Naming.
func NamingFor(strategy string) (Naming, error) {
	switch strategy {
	case "", "index":
		return IndexNaming{}, nil
	case "random":
		return RandomNaming{}, nil
	default:
		return nil, fmt.Errorf("unknown naming strategy %q", strategy)
	}
}
