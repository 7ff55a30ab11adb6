package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Jorgecuenca1/contabilidad/internal/domain/clinical"
)

type Service struct {
	registry *clinical.Registry
	invoices InvoiceRepository
	payments PaymentRepository
	tx       TxRunner
	log      zerolog.Logger
}

func NewService(registry *clinical.Registry, invoices InvoiceRepository, payments PaymentRepository, tx TxRunner, log zerolog.Logger) *Service {
	return &Service{registry: registry, invoices: invoices, payments: payments, tx: tx, log: log}
}

type CreateInvoiceInput struct {
	PatientID uuid.UUID             `json:"patient_id"`
	PayerID   uuid.UUID             `json:"payer_id"`
	Services  []clinical.ServiceRef `json:"services"`
}

// CreateInvoice assembles one invoice from the selected service records.
// The whole operation is one transaction: every record is re-fetched under
// an exclusive row lock and re-checked, so a record can be billed at most
// once no matter how many assemblies race on it. Any failure rolls back the
// invoice, its line items, and every billed flag.
func (s *Service) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*Invoice, error) {
	if len(in.Services) == 0 {
		return nil, validationErrorf("at least one service must be selected")
	}
	if in.PatientID == uuid.Nil {
		return nil, validationErrorf("patient_id is required")
	}
	if in.PayerID == uuid.Nil {
		return nil, validationErrorf("payer_id is required")
	}
	seen := make(map[clinical.ServiceRef]bool, len(in.Services))
	for _, ref := range in.Services {
		if seen[ref] {
			return nil, validationErrorf("service %s/%s selected twice", ref.Kind, ref.ID)
		}
		seen[ref] = true
	}

	var inv *Invoice
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		records := make([]*clinical.ServiceRecord, 0, len(in.Services))
		for _, ref := range in.Services {
			producer, ok := s.registry.Lookup(ref.Kind)
			if !ok {
				return validationErrorf("unknown service kind: %s", ref.Kind)
			}

			rec, err := producer.GetForUpdate(ctx, ref.ID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return validationErrorf("service %s/%s not found", ref.Kind, ref.ID)
				}
				return fmt.Errorf("lock service %s/%s: %w", ref.Kind, ref.ID, err)
			}
			if rec.PatientID != in.PatientID {
				return validationErrorf("service %s/%s does not belong to patient %s", ref.Kind, ref.ID, in.PatientID)
			}
			if rec.Billed {
				return validationErrorf("service %s/%s is already billed", ref.Kind, ref.ID)
			}
			records = append(records, rec)
		}

		number, err := s.invoices.NextNumber(ctx)
		if err != nil {
			return err
		}

		inv = &Invoice{
			ID:        uuid.New(),
			Number:    number,
			PatientID: in.PatientID,
			PayerID:   in.PayerID,
			Status:    StatusDraft,
			IssueDate: time.Now().UTC(),
		}
		if err := s.invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		var total int64
		for _, rec := range records {
			item := &LineItem{
				ID:            uuid.New(),
				InvoiceID:     inv.ID,
				ServiceKind:   rec.Kind,
				ServiceID:     rec.ID,
				Code:          rec.Code,
				Name:          rec.Name,
				Quantity:      rec.Quantity,
				UnitPrice:     rec.UnitPrice,
				Total:         rec.Total,
				ServiceDate:   rec.ServiceDate,
				DiagnosisCode: rec.DiagnosisCode,
			}
			if err := s.invoices.CreateLineItem(ctx, item); err != nil {
				return fmt.Errorf("create line item for %s/%s: %w", rec.Kind, rec.ID, err)
			}

			producer, _ := s.registry.Lookup(rec.Kind)
			if err := producer.MarkBilled(ctx, rec.ID); err != nil {
				return fmt.Errorf("mark %s/%s billed: %w", rec.Kind, rec.ID, err)
			}
			total += rec.Total
		}

		inv.Total = total
		return s.invoices.UpdateTotal(ctx, inv.ID, total)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice", inv.Number).
		Str("patient_id", in.PatientID.String()).
		Int("line_items", len(in.Services)).
		Int64("total", inv.Total).
		Msg("invoice created")
	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	return s.invoices.List(ctx, limit, offset)
}

func (s *Service) ListInvoicesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	return s.invoices.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]*LineItem, error) {
	return s.invoices.ListLineItems(ctx, invoiceID)
}

// IssueInvoice moves a draft invoice to issued, making it eligible for
// RIPS generation and payments.
func (s *Service) IssueInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, validationErrorf("invoice %s is %s, only draft invoices can be issued", inv.Number, inv.Status)
	}
	if err := s.invoices.UpdateStatus(ctx, id, StatusIssued); err != nil {
		return nil, err
	}
	inv.Status = StatusIssued
	return inv, nil
}

// CancelInvoice cancels a draft invoice. Invoices with a generated RIPS
// document are immutable and cannot be cancelled.
func (s *Service) CancelInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.RIPSGenerated {
		return nil, validationErrorf("invoice %s already has a RIPS document and cannot be cancelled", inv.Number)
	}
	if inv.PaidAmount > 0 {
		return nil, validationErrorf("invoice %s has payments and cannot be cancelled", inv.Number)
	}
	if err := s.invoices.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	inv.Status = StatusCancelled
	return inv, nil
}

// RegisterPayment records money received against an issued invoice and
// advances the status to partial_payment or paid.
func (s *Service) RegisterPayment(ctx context.Context, invoiceID uuid.UUID, amount int64, method, reference string, receivedAt time.Time) (*Payment, error) {
	if amount <= 0 {
		return nil, validationErrorf("payment amount must be positive")
	}
	if !validPaymentMethods[method] {
		return nil, validationErrorf("invalid payment method: %s", method)
	}

	var payment *Payment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != StatusIssued && inv.Status != StatusPartialPayment {
			return validationErrorf("invoice %s is %s, payments require an issued invoice", inv.Number, inv.Status)
		}
		newPaid := inv.PaidAmount + amount
		if newPaid > inv.Total {
			return validationErrorf("payment exceeds invoice balance: %d > %d", newPaid, inv.Total)
		}

		payment = &Payment{
			ID:         uuid.New(),
			InvoiceID:  invoiceID,
			Amount:     amount,
			Method:     method,
			Reference:  reference,
			ReceivedAt: receivedAt,
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		status := StatusPartialPayment
		if newPaid == inv.Total {
			status = StatusPaid
		}
		return s.invoices.UpdatePaidAmount(ctx, invoiceID, newPaid, status)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	return s.payments.ListByInvoice(ctx, invoiceID)
}
