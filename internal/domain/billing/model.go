package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jorgecuenca1/contabilidad/internal/domain/clinical"
)

type InvoiceStatus string

const (
	StatusDraft          InvoiceStatus = "draft"
	StatusIssued         InvoiceStatus = "issued"
	StatusPartialPayment InvoiceStatus = "partial_payment"
	StatusPaid           InvoiceStatus = "paid"
	StatusCancelled      InvoiceStatus = "cancelled"
)

// Invoice aggregates billed clinical services for one patient and one payer.
// Total always equals the sum of its line item totals; monetary values are
// integer centavos.
type Invoice struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	Number          string        `db:"number" json:"number"`
	PatientID       uuid.UUID     `db:"patient_id" json:"patient_id"`
	PayerID         uuid.UUID     `db:"payer_id" json:"payer_id"`
	Status          InvoiceStatus `db:"status" json:"status"`
	IssueDate       time.Time     `db:"issue_date" json:"issue_date"`
	Total           int64         `db:"total" json:"total"`
	PaidAmount      int64         `db:"paid_amount" json:"paid_amount"`
	RIPSGenerated   bool          `db:"rips_generated" json:"rips_generated"`
	RIPSGeneratedAt *time.Time    `db:"rips_generated_at" json:"rips_generated_at,omitempty"`
	RIPSFilePath    *string       `db:"rips_file_path" json:"rips_file_path,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// LineItem is one billed service within an invoice. ServiceKind plus
// ServiceID form the polymorphic back-reference to the originating clinical
// record; amounts and codes are copied at assembly time and never mutated.
type LineItem struct {
	ID            uuid.UUID            `db:"id" json:"id"`
	InvoiceID     uuid.UUID            `db:"invoice_id" json:"invoice_id"`
	ServiceKind   clinical.ServiceKind `db:"service_kind" json:"service_kind"`
	ServiceID     uuid.UUID            `db:"service_id" json:"service_id"`
	Code          string               `db:"code" json:"code"`
	Name          string               `db:"name" json:"name"`
	Quantity      int64                `db:"quantity" json:"quantity"`
	UnitPrice     int64                `db:"unit_price" json:"unit_price"`
	Total         int64                `db:"total" json:"total"`
	ServiceDate   time.Time            `db:"service_date" json:"service_date"`
	DiagnosisCode string               `db:"diagnosis_code" json:"diagnosis_code,omitempty"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
}

// Payment records money received against an invoice.
type Payment struct {
	ID         uuid.UUID `db:"id" json:"id"`
	InvoiceID  uuid.UUID `db:"invoice_id" json:"invoice_id"`
	Amount     int64     `db:"amount" json:"amount"`
	Method     string    `db:"method" json:"method"`
	Reference  string    `db:"reference" json:"reference,omitempty"`
	ReceivedAt time.Time `db:"received_at" json:"received_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

var validPaymentMethods = map[string]bool{
	"cash":     true,
	"transfer": true,
	"check":    true,
	"card":     true,
	"eps":      true,
}
