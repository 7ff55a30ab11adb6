package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	patients PatientRepository
	payers   PayerRepository
}

func NewService(patients PatientRepository, payers PayerRepository) *Service {
	return &Service{patients: patients, payers: payers}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.DocumentNumber == "" {
		return fmt.Errorf("document_number is required")
	}
	if !validDocumentTypes[p.DocumentType] {
		return fmt.Errorf("invalid document_type: %s", p.DocumentType)
	}
	if p.Regime != "" && !validRegimes[p.Regime] {
		return fmt.Errorf("invalid regime: %s", p.Regime)
	}
	if p.Sex != "" && p.Sex != "M" && p.Sex != "F" {
		return fmt.Errorf("sex must be M or F")
	}

	// Residence defaults match what the regulatory export expects for
	// records captured without an address.
	if p.CountryCode == "" {
		p.CountryCode = "170"
	}
	if p.ZoneCode == "" {
		p.ZoneCode = "01"
	}
	if p.Incapacity == "" {
		p.Incapacity = "NO"
	}

	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if !validDocumentTypes[p.DocumentType] {
		return fmt.Errorf("invalid document_type: %s", p.DocumentType)
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) CreatePayer(ctx context.Context, p *Payer) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.NIT == "" {
		return fmt.Errorf("nit is required")
	}
	return s.payers.Create(ctx, p)
}

func (s *Service) GetPayer(ctx context.Context, id uuid.UUID) (*Payer, error) {
	return s.payers.GetByID(ctx, id)
}

func (s *Service) ListPayers(ctx context.Context, limit, offset int) ([]*Payer, int, error) {
	return s.payers.List(ctx, limit, offset)
}
