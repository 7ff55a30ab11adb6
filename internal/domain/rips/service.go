package rips

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Jorgecuenca1/contabilidad/internal/domain/billing"
	"github.com/Jorgecuenca1/contabilidad/internal/domain/identity"
	"github.com/Jorgecuenca1/contabilidad/internal/platform/db"
	"github.com/Jorgecuenca1/contabilidad/internal/platform/filestore"
)

// InvoiceStore is the slice of the billing repository this package needs.
type InvoiceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error)
	ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]*billing.LineItem, error)
	MarkRIPSGenerated(ctx context.Context, id uuid.UUID, path string, at time.Time) error
}

// PatientStore resolves the invoice's patient demographics.
type PatientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

// Service generates and serves RIPS documents for finalized invoices.
type Service struct {
	builder  *Builder
	invoices InvoiceStore
	patients PatientStore
	store    filestore.Store
	log      zerolog.Logger
}

func NewService(builder *Builder, invoices InvoiceStore, patients PatientStore, store filestore.Store, log zerolog.Logger) *Service {
	return &Service{
		builder:  builder,
		invoices: invoices,
		patients: patients,
		store:    store,
		log:      log,
	}
}

// GenerateResult is returned after a successful generation.
type GenerateResult struct {
	InvoiceNumber string `json:"invoice_number"`
	FilePath      string `json:"file_path"`
	TotalServices int    `json:"total_services"`
	Size          int64  `json:"size"`
	Hash          string `json:"hash"`
}

// Generate builds the RIPS document for an invoice, writes it to the
// artifact store, and only then records the generation on the invoice.
// A storage failure leaves the invoice untouched so the call can be
// retried; a retry produces a fresh artifact with a new timestamp.
func (s *Service) Generate(ctx context.Context, invoiceID uuid.UUID) (*GenerateResult, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !eligible(inv.Status) {
		return nil, ErrNotEligible
	}

	items, err := s.invoices.ListLineItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	patient, err := s.patients.GetByID(ctx, inv.PatientID)
	if err != nil {
		return nil, err
	}

	doc, err := s.builder.Build(ctx, inv, items, patient)
	if err != nil {
		return nil, err
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode rips document for %s: %w", inv.Number, err)
	}

	now := time.Now().UTC()
	path := artifactPath(ctx, inv.Number, now)
	info, err := s.store.Save(ctx, path, payload)
	if err != nil {
		return nil, &StorageError{Path: path, Err: err}
	}

	if err := s.invoices.MarkRIPSGenerated(ctx, invoiceID, path, now); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice", inv.Number).
		Str("path", path).
		Int("services", doc.TotalServices()).
		Msg("rips document generated")

	return &GenerateResult{
		InvoiceNumber: inv.Number,
		FilePath:      path,
		TotalServices: doc.TotalServices(),
		Size:          info.Size,
		Hash:          info.Hash,
	}, nil
}

// Download returns the stored artifact bytes plus a download file name.
func (s *Service) Download(ctx context.Context, invoiceID uuid.UUID) ([]byte, string, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	if !inv.RIPSGenerated || inv.RIPSFilePath == nil {
		return nil, "", ErrNotGenerated
	}

	data, err := s.store.Read(ctx, *inv.RIPSFilePath)
	if err != nil {
		return nil, "", &StorageError{Path: *inv.RIPSFilePath, Err: err}
	}
	return data, fmt.Sprintf("RIPS_%s.json", inv.Number), nil
}

func eligible(status billing.InvoiceStatus) bool {
	switch status {
	case billing.StatusIssued, billing.StatusPartialPayment, billing.StatusPaid:
		return true
	}
	return false
}

// artifactPath namespaces artifacts by tenant and stamps each generation,
// so regenerations never overwrite an earlier file.
func artifactPath(ctx context.Context, invoiceNumber string, at time.Time) string {
	tenant := db.TenantFromContext(ctx)
	if tenant == "" {
		tenant = "default"
	}
	return fmt.Sprintf("rips/%s/RIPS_%s_%s.json", tenant, invoiceNumber, at.Format("20060102_150405"))
}
