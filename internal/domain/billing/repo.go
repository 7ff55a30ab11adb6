package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	List(ctx context.Context, limit, offset int) ([]*Invoice, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error)
	UpdateTotal(ctx context.Context, id uuid.UUID, total int64) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) error
	UpdatePaidAmount(ctx context.Context, id uuid.UUID, paid int64, status InvoiceStatus) error
	MarkRIPSGenerated(ctx context.Context, id uuid.UUID, path string, at time.Time) error

	CreateLineItem(ctx context.Context, item *LineItem) error
	ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]*LineItem, error)

	// NextNumber allocates the next invoice number for the current tenant.
	// Must be called inside the assembly transaction so two concurrent
	// assemblies cannot draw the same number.
	NextNumber(ctx context.Context) (string, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)
}

// TxRunner runs fn atomically; the unit of work is shared through the
// context fn receives. The production implementation opens a database
// transaction, the test one just calls fn.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
