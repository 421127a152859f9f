// internal/app/system/bulkimport/context.go
package bulkimport

import (
	"errors"
	"strings"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
)

// ContextKey names one foreign key an import may need before its rows mean
// anything.
type ContextKey string

const (
	KeyCountry     ContextKey = "country_id"
	KeyState       ContextKey = "state_id"
	KeyDistributor ContextKey = "distributor_id"
	KeyPharmacy    ContextKey = "pharmacy_id"
)

// Label is the selector caption shown to the user.
func (k ContextKey) Label() string {
	switch k {
	case KeyCountry:
		return "País"
	case KeyState:
		return "Estado"
	case KeyDistributor:
		return "Distribuidora"
	case KeyPharmacy:
		return "Farmacia"
	}
	return string(k)
}

// ErrContextMissing is matched by *MissingContextError.
var ErrContextMissing = errors.New("required import context is missing")

// MissingContextError lists the keys that still need a value.
type MissingContextError struct {
	Keys []ContextKey
}

func (e *MissingContextError) Error() string {
	labels := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		labels[i] = k.Label()
	}
	return "Seleccione primero: " + strings.Join(labels, ", ")
}

func (e *MissingContextError) Is(target error) bool { return target == ErrContextMissing }

// Context holds the caller-chosen foreign keys, plus the display names the
// selectors resolved for them.
type Context struct {
	CountryID     pharmaapi.ID
	StateID       pharmaapi.ID
	DistributorID pharmaapi.ID
	PharmacyID    pharmaapi.ID

	PharmacyName string
}

// Get returns the value held for k.
func (c Context) Get(k ContextKey) pharmaapi.ID {
	switch k {
	case KeyCountry:
		return c.CountryID
	case KeyState:
		return c.StateID
	case KeyDistributor:
		return c.DistributorID
	case KeyPharmacy:
		return c.PharmacyID
	}
	return ""
}

// Set stores v under k and reports whether k is known.
func (c *Context) Set(k ContextKey, v pharmaapi.ID) bool {
	v = pharmaapi.ID(strings.TrimSpace(string(v)))
	switch k {
	case KeyCountry:
		c.CountryID = v
	case KeyState:
		c.StateID = v
	case KeyDistributor:
		c.DistributorID = v
	case KeyPharmacy:
		c.PharmacyID = v
	default:
		return false
	}
	return true
}

// Check returns a *MissingContextError when any of keys is unset.
func (c Context) Check(keys []ContextKey) error {
	var missing []ContextKey
	for _, k := range keys {
		if c.Get(k).IsZero() {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingContextError{Keys: missing}
	}
	return nil
}
