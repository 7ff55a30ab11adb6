package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jorgecuenca1/contabilidad/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Invoice Repository ===========

type invoiceRepoPG struct{ pool *pgxpool.Pool }

func NewInvoiceRepoPG(pool *pgxpool.Pool) InvoiceRepository { return &invoiceRepoPG{pool: pool} }

func (r *invoiceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const invoiceCols = `id, number, patient_id, payer_id, status, issue_date, total, paid_amount,
	rips_generated, rips_generated_at, rips_file_path, created_at, updated_at`

func (r *invoiceRepoPG) scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.PatientID, &inv.PayerID, &inv.Status,
		&inv.IssueDate, &inv.Total, &inv.PaidAmount,
		&inv.RIPSGenerated, &inv.RIPSGeneratedAt, &inv.RIPSFilePath,
		&inv.CreatedAt, &inv.UpdatedAt)
	return &inv, err
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoices (id, number, patient_id, payer_id, status, issue_date, total, paid_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		inv.ID, inv.Number, inv.PatientID, inv.PayerID, inv.Status, inv.IssueDate, inv.Total, inv.PaidAmount)
	return err
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return r.scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
}

func (r *invoiceRepoPG) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	return r.scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE number = $1`, number))
}

func (r *invoiceRepoPG) List(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+invoiceCols+` FROM invoices ORDER BY issue_date DESC, number DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return r.collect(rows, total)
}

func (r *invoiceRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE patient_id = $1
		 ORDER BY issue_date DESC, number DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return r.collect(rows, total)
}

func (r *invoiceRepoPG) collect(rows pgx.Rows, total int) ([]*Invoice, int, error) {
	var invoices []*Invoice
	for rows.Next() {
		inv, err := r.scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

func (r *invoiceRepoPG) UpdateTotal(ctx context.Context, id uuid.UUID, total int64) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE invoices SET total = $2, updated_at = NOW() WHERE id = $1`, id, total)
	return err
}

func (r *invoiceRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *invoiceRepoPG) UpdatePaidAmount(ctx context.Context, id uuid.UUID, paid int64, status InvoiceStatus) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE invoices SET paid_amount = $2, status = $3, updated_at = NOW() WHERE id = $1`,
		id, paid, status)
	return err
}

func (r *invoiceRepoPG) MarkRIPSGenerated(ctx context.Context, id uuid.UUID, path string, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoices SET rips_generated = TRUE, rips_generated_at = $2, rips_file_path = $3,
			updated_at = NOW()
		WHERE id = $1`, id, at, path)
	return err
}

const lineItemCols = `id, invoice_id, service_kind, service_id, code, name,
	quantity, unit_price, total, service_date, diagnosis_code, created_at`

func (r *invoiceRepoPG) CreateLineItem(ctx context.Context, item *LineItem) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice_line_items (id, invoice_id, service_kind, service_id, code, name,
			quantity, unit_price, total, service_date, diagnosis_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		item.ID, item.InvoiceID, item.ServiceKind, item.ServiceID, item.Code, item.Name,
		item.Quantity, item.UnitPrice, item.Total, item.ServiceDate, item.DiagnosisCode)
	return err
}

func (r *invoiceRepoPG) ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]*LineItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+lineItemCols+` FROM invoice_line_items WHERE invoice_id = $1 ORDER BY created_at, id`,
		invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ServiceKind, &it.ServiceID, &it.Code, &it.Name,
			&it.Quantity, &it.UnitPrice, &it.Total, &it.ServiceDate, &it.DiagnosisCode, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// NextNumber bumps the per-tenant counter row and formats the invoice
// number. The counter row is locked by the UPDATE for the rest of the
// transaction, which is what serializes concurrent assemblies on numbering.
// Numbers burned by rolled-back assemblies leave gaps, which is acceptable;
// duplicates are not.
func (r *invoiceRepoPG) NextNumber(ctx context.Context) (string, error) {
	var prefix string
	var n int64
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE invoice_counters SET last_number = last_number + 1, updated_at = NOW()
		WHERE id = 1
		RETURNING prefix, last_number`).Scan(&prefix, &n)
	if err != nil {
		return "", fmt.Errorf("allocate invoice number: %w", err)
	}
	return fmt.Sprintf("%s%08d", prefix, n), nil
}

// =========== Payment Repository ===========

type paymentRepoPG struct{ pool *pgxpool.Pool }

func NewPaymentRepoPG(pool *pgxpool.Pool) PaymentRepository { return &paymentRepoPG{pool: pool} }

func (r *paymentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice_payments (id, invoice_id, amount, method, reference, received_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.InvoiceID, p.Amount, p.Method, p.Reference, p.ReceivedAt)
	return err
}

func (r *paymentRepoPG) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, amount, method, reference, received_at, created_at
		FROM invoice_payments WHERE invoice_id = $1 ORDER BY received_at`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.ReceivedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

// =========== Transaction runner ===========

type pgTxRunner struct{ pool *pgxpool.Pool }

// NewTxRunnerPG returns a TxRunner backed by db.WithTx.
func NewTxRunnerPG(pool *pgxpool.Pool) TxRunner { return &pgTxRunner{pool: pool} }

func (t *pgTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, t.pool, fn)
}
