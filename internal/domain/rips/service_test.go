package rips

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Jorgecuenca1/contabilidad/internal/domain/billing"
	"github.com/Jorgecuenca1/contabilidad/internal/domain/clinical"
	"github.com/Jorgecuenca1/contabilidad/internal/domain/identity"
	"github.com/Jorgecuenca1/contabilidad/internal/platform/filestore"
)

type mockInvoiceStore struct {
	invoices map[uuid.UUID]*billing.Invoice
	items    map[uuid.UUID][]*billing.LineItem
}

func newMockInvoiceStore() *mockInvoiceStore {
	return &mockInvoiceStore{
		invoices: make(map[uuid.UUID]*billing.Invoice),
		items:    make(map[uuid.UUID][]*billing.LineItem),
	}
}

func (m *mockInvoiceStore) GetByID(_ context.Context, id uuid.UUID) (*billing.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *inv
	return &cp, nil
}

func (m *mockInvoiceStore) ListLineItems(_ context.Context, invoiceID uuid.UUID) ([]*billing.LineItem, error) {
	return m.items[invoiceID], nil
}

func (m *mockInvoiceStore) MarkRIPSGenerated(_ context.Context, id uuid.UUID, path string, at time.Time) error {
	inv, ok := m.invoices[id]
	if !ok {
		return pgx.ErrNoRows
	}
	inv.RIPSGenerated = true
	inv.RIPSFilePath = &path
	inv.RIPSGeneratedAt = &at
	return nil
}

type mockPatientStore struct {
	patients map[uuid.UUID]*identity.Patient
}

func (m *mockPatientStore) GetByID(_ context.Context, id uuid.UUID) (*identity.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

// failingStore rejects every save until healed, then delegates.
type failingStore struct {
	filestore.Store
	broken bool
}

func (s *failingStore) Save(ctx context.Context, name string, data []byte) (*filestore.FileInfo, error) {
	if s.broken {
		return nil, errors.New("disk full")
	}
	return s.Store.Save(ctx, name, data)
}

type serviceFixture struct {
	svc      *Service
	invoices *mockInvoiceStore
	patients *mockPatientStore
	files    *filestore.MemoryStore
	patient  *identity.Patient
	invoice  *billing.Invoice
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	meds := newMockProducer(clinical.KindMedication)
	imaging := newMockProducer(clinical.KindImaging)
	registry := testRegistry(t, meds, imaging)

	patient := testPatient()
	when := time.Date(2025, 6, 10, 9, 15, 0, 0, time.UTC)
	recMed := meds.add(&clinical.ServiceRecord{PatientID: patient.ID, Code: "19840247", Name: "Acetaminofén 500mg", ServiceDate: when, Quantity: 2, UnitPrice: 2000, Total: 4000, DiagnosisCode: "R509", Billed: true})
	recImg := imaging.add(&clinical.ServiceRecord{PatientID: patient.ID, Code: "870201", Name: "Radiografía de tórax", ServiceDate: when, Quantity: 1, UnitPrice: 25000, Total: 25000, DiagnosisCode: "J189", Billed: true})

	invoiceID := uuid.New()
	invoice := &billing.Invoice{
		ID:        invoiceID,
		Number:    "FAC-00000042",
		PatientID: patient.ID,
		Status:    billing.StatusIssued,
		Total:     29000,
	}

	invoices := newMockInvoiceStore()
	invoices.invoices[invoiceID] = invoice
	invoices.items[invoiceID] = []*billing.LineItem{
		lineItemFor(recMed, invoiceID),
		lineItemFor(recImg, invoiceID),
	}

	patients := &mockPatientStore{patients: map[uuid.UUID]*identity.Patient{patient.ID: patient}}
	files := filestore.NewMemoryStore()

	return &serviceFixture{
		svc:      NewService(NewBuilder(registry, testObligatedID), invoices, patients, files, zerolog.Nop()),
		invoices: invoices,
		patients: patients,
		files:    files,
		patient:  patient,
		invoice:  invoice,
	}
}

func TestGenerate_WritesDocumentAndMarksInvoice(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Generate(ctx, f.invoice.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.InvoiceNumber != "FAC-00000042" || result.TotalServices != 2 {
		t.Errorf("bad result: %+v", result)
	}

	data, err := f.files.Read(ctx, result.FilePath)
	if err != nil {
		t.Fatalf("artifact not stored at %s: %v", result.FilePath, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("stored artifact is not valid JSON: %v", err)
	}
	if doc.NumFactura != "FAC-00000042" {
		t.Errorf("bad numFactura: %s", doc.NumFactura)
	}
	if len(doc.Usuarios) != 1 {
		t.Fatalf("expected 1 usuario, got %d", len(doc.Usuarios))
	}
	s := doc.Usuarios[0].Servicios
	if len(s.Medicamentos) != 1 || len(s.Procedimientos) != 1 {
		t.Errorf("bad categories: medicamentos=%d procedimientos=%d", len(s.Medicamentos), len(s.Procedimientos))
	}
	if len(s.Consultas) != 0 || len(s.OtrosServicios) != 0 {
		t.Error("empty categories must stay empty")
	}

	inv := f.invoices.invoices[f.invoice.ID]
	if !inv.RIPSGenerated || inv.RIPSFilePath == nil || *inv.RIPSFilePath != result.FilePath {
		t.Errorf("invoice not marked: %+v", inv)
	}
}

func TestGenerate_DraftInvoiceNotEligible(t *testing.T) {
	f := newServiceFixture(t)
	f.invoices.invoices[f.invoice.ID].Status = billing.StatusDraft

	_, err := f.svc.Generate(context.Background(), f.invoice.ID)
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
	if f.invoices.invoices[f.invoice.ID].RIPSGenerated {
		t.Error("flag must stay clear")
	}
}

func TestGenerate_CancelledInvoiceNotEligible(t *testing.T) {
	f := newServiceFixture(t)
	f.invoices.invoices[f.invoice.ID].Status = billing.StatusCancelled

	if _, err := f.svc.Generate(context.Background(), f.invoice.ID); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
}

func TestGenerate_IncompleteDataWritesNothing(t *testing.T) {
	f := newServiceFixture(t)
	f.patient.BirthDate = nil

	_, err := f.svc.Generate(context.Background(), f.invoice.ID)

	var incomplete *IncompleteDataError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteDataError, got %v", err)
	}
	found := false
	for _, field := range incomplete.Missing {
		if field == "birth_date" {
			found = true
		}
	}
	if !found {
		t.Errorf("birth_date not reported: %v", incomplete.Missing)
	}
	if f.invoices.invoices[f.invoice.ID].RIPSGenerated {
		t.Error("flag must stay clear on validation failure")
	}
}

func TestGenerate_StorageFailureIsRetryable(t *testing.T) {
	f := newServiceFixture(t)
	broken := &failingStore{Store: f.files, broken: true}
	f.svc = NewService(f.svc.builder, f.invoices, f.patients, broken, zerolog.Nop())
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, f.invoice.ID)
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if f.invoices.invoices[f.invoice.ID].RIPSGenerated {
		t.Fatal("flag must stay clear after a storage failure")
	}

	broken.broken = false
	result, err := f.svc.Generate(ctx, f.invoice.ID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if exists, _ := f.files.Exists(ctx, result.FilePath); !exists {
		t.Errorf("retry artifact missing at %s", result.FilePath)
	}
	if !f.invoices.invoices[f.invoice.ID].RIPSGenerated {
		t.Error("flag must be set after successful retry")
	}
}

func TestGenerate_UnknownInvoice(t *testing.T) {
	f := newServiceFixture(t)
	if _, err := f.svc.Generate(context.Background(), uuid.New()); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
}

func TestDownload_RoundTrip(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Generate(ctx, f.invoice.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	data, filename, err := f.svc.Download(ctx, f.invoice.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filename != "RIPS_FAC-00000042.json" {
		t.Errorf("bad download name: %s", filename)
	}
	if int64(len(data)) != result.Size {
		t.Errorf("downloaded %d bytes, stored %d", len(data), result.Size)
	}
}

func TestDownload_NotGenerated(t *testing.T) {
	f := newServiceFixture(t)
	if _, _, err := f.svc.Download(context.Background(), f.invoice.ID); !errors.Is(err, ErrNotGenerated) {
		t.Fatalf("expected ErrNotGenerated, got %v", err)
	}
}
