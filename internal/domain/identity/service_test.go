package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockPatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) GetByDocument(_ context.Context, docType, docNumber string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.DocumentType == docType && p.DocumentNumber == docNumber {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Patient
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, len(m.patients), nil
}

type mockPayerRepo struct {
	payers map[uuid.UUID]*Payer
}

func newMockPayerRepo() *mockPayerRepo {
	return &mockPayerRepo{payers: make(map[uuid.UUID]*Payer)}
}

func (m *mockPayerRepo) Create(_ context.Context, p *Payer) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.payers[p.ID] = &cp
	return nil
}

func (m *mockPayerRepo) GetByID(_ context.Context, id uuid.UUID) (*Payer, error) {
	p, ok := m.payers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockPayerRepo) List(_ context.Context, limit, offset int) ([]*Payer, int, error) {
	var out []*Payer
	for _, p := range m.payers {
		cp := *p
		out = append(out, &cp)
	}
	return out, len(m.payers), nil
}

func newTestService() *Service {
	return NewService(newMockPatientRepo(), newMockPayerRepo())
}

func TestCreatePatient_DefaultsResidence(t *testing.T) {
	svc := newTestService()
	birth := time.Date(1985, 3, 12, 0, 0, 0, 0, time.UTC)
	p := &Patient{
		DocumentType:   "CC",
		DocumentNumber: "1036789123",
		FirstName:      "Maria",
		LastName:       "Gomez",
		BirthDate:      &birth,
		Sex:            "F",
		Regime:         "contributivo",
	}

	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.CountryCode != "170" {
		t.Errorf("expected country code 170, got %s", p.CountryCode)
	}
	if p.ZoneCode != "01" {
		t.Errorf("expected zone code 01, got %s", p.ZoneCode)
	}
	if p.Incapacity != "NO" {
		t.Errorf("expected incapacity NO, got %s", p.Incapacity)
	}
}

func TestCreatePatient_InvalidDocumentType(t *testing.T) {
	svc := newTestService()
	p := &Patient{DocumentType: "XX", DocumentNumber: "123"}

	if err := svc.CreatePatient(context.Background(), p); err == nil {
		t.Fatal("expected error for invalid document type")
	}
}

func TestCreatePatient_MissingDocumentNumber(t *testing.T) {
	svc := newTestService()
	p := &Patient{DocumentType: "CC"}

	if err := svc.CreatePatient(context.Background(), p); err == nil {
		t.Fatal("expected error for missing document number")
	}
}

func TestCreatePatient_InvalidRegime(t *testing.T) {
	svc := newTestService()
	p := &Patient{DocumentType: "CC", DocumentNumber: "123", Regime: "premium"}

	if err := svc.CreatePatient(context.Background(), p); err == nil {
		t.Fatal("expected error for invalid regime")
	}
}

func TestCreatePayer_Validation(t *testing.T) {
	svc := newTestService()

	if err := svc.CreatePayer(context.Background(), &Payer{NIT: "800100200"}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.CreatePayer(context.Background(), &Payer{Name: "EPS Sura"}); err == nil {
		t.Error("expected error for missing nit")
	}
	if err := svc.CreatePayer(context.Background(), &Payer{Name: "EPS Sura", NIT: "800100200", EPSCode: "EPS005"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
