package rips

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Jorgecuenca1/contabilidad/internal/domain/clinical"
)

// ErrNotEligible is returned when RIPS generation is requested for an
// invoice that has not been issued yet (or was cancelled).
var ErrNotEligible = errors.New("invoice is not eligible for RIPS generation")

// ErrNotGenerated is returned on download when no document exists yet.
var ErrNotGenerated = errors.New("no RIPS document has been generated for this invoice")

// IncompleteDataError reports every mandatory demographic field the patient
// is missing, so the operator can fix them all in one pass.
type IncompleteDataError struct {
	Missing []string
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("patient data incomplete, missing: %s", strings.Join(e.Missing, ", "))
}

// DanglingReferenceError means a billed line item no longer resolves to its
// source record. That violates the billing lifecycle (billed records are
// never deleted) and is fatal for the whole document.
type DanglingReferenceError struct {
	Kind clinical.ServiceKind
	ID   uuid.UUID
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("line item references missing %s record %s", e.Kind, e.ID)
}

// StorageError wraps a failed artifact write or read. The invoice's
// generation flag is never set when one occurs, so the operation is safe
// to retry.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("rips storage failure at %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
