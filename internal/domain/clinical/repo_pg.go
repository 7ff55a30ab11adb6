package clinical

import (
	"context"
	"fmt"

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

// pgProducer implements Producer over one producer table. Every producer
// table carries the same billing columns; kind-specific columns stay private
// to the owning module and are never read here.
type pgProducer struct {
	pool  *pgxpool.Pool
	kind  ServiceKind
	table string
}

func NewMedicationProducerPG(pool *pgxpool.Pool) Producer {
	return &pgProducer{pool: pool, kind: KindMedication, table: "medication_dispensings"}
}

func NewImagingProducerPG(pool *pgxpool.Pool) Producer {
	return &pgProducer{pool: pool, kind: KindImaging, table: "imaging_orders"}
}

func NewHospitalizationProducerPG(pool *pgxpool.Pool) Producer {
	return &pgProducer{pool: pool, kind: KindHospitalization, table: "hospital_admissions"}
}

func NewSurgeryProducerPG(pool *pgxpool.Pool) Producer {
	return &pgProducer{pool: pool, kind: KindSurgery, table: "surgeries"}
}

func NewConsultationProducerPG(pool *pgxpool.Pool) Producer {
	return &pgProducer{pool: pool, kind: KindConsultation, table: "consultations"}
}

func (r *pgProducer) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *pgProducer) Kind() ServiceKind { return r.kind }

const serviceCols = `id, patient_id, code, name, service_date, quantity, unit_price, total,
	diagnosis_code, related_diagnosis_code, authorization_number, billed`

func (r *pgProducer) scanRecord(row pgx.Row) (*ServiceRecord, error) {
	rec := ServiceRecord{Kind: r.kind}
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.Code, &rec.Name, &rec.ServiceDate,
		&rec.Quantity, &rec.UnitPrice, &rec.Total,
		&rec.DiagnosisCode, &rec.RelatedDiagnosisCode, &rec.AuthorizationNumber, &rec.Billed)
	return &rec, err
}

func (r *pgProducer) ListUnbilled(ctx context.Context, patientID uuid.UUID) ([]*ServiceRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE patient_id = $1 AND billed = FALSE ORDER BY service_date DESC`,
		serviceCols, r.table), patientID)
	if err != nil {
		return nil, fmt.Errorf("query unbilled %s: %w", r.table, err)
	}
	defer rows.Close()

	var records []*ServiceRecord
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *pgProducer) Get(ctx context.Context, id uuid.UUID) (*ServiceRecord, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1`, serviceCols, r.table), id))
}

func (r *pgProducer) GetForUpdate(ctx context.Context, id uuid.UUID) (*ServiceRecord, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, serviceCols, r.table), id))
}

func (r *pgProducer) MarkBilled(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET billed = TRUE, updated_at = NOW() WHERE id = $1`, r.table), id)
	return err
}
