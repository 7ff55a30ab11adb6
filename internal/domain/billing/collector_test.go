package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Jorgecuenca1/contabilidad/internal/domain/clinical"
)

func TestCollector_MergesAndSortsDescending(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()

	older := &clinical.ServiceRecord{
		PatientID:   patientID,
		Code:        "19840247",
		ServiceDate: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC),
		Total:       4000,
	}
	newer := &clinical.ServiceRecord{
		PatientID:   patientID,
		Code:        "870201",
		ServiceDate: time.Date(2025, 5, 3, 8, 0, 0, 0, time.UTC),
		Total:       25000,
	}
	f.meds.add(older)
	f.imaging.add(newer)

	records := f.collector.UnbilledServices(context.Background(), patientID)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Code != "870201" || records[1].Code != "19840247" {
		t.Errorf("expected most recent first, got %s then %s", records[0].Code, records[1].Code)
	}
	for _, rec := range records {
		if rec.Billed {
			t.Errorf("expected unbilled records only, %s is billed", rec.Code)
		}
	}
}

func TestCollector_ExcludesBilled(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()

	f.meds.add(&clinical.ServiceRecord{PatientID: patientID, Code: "A", Billed: true})
	f.meds.add(&clinical.ServiceRecord{PatientID: patientID, Code: "B"})

	records := f.collector.UnbilledServices(context.Background(), patientID)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Code != "B" {
		t.Errorf("expected code B, got %s", records[0].Code)
	}
}

func TestCollector_SkipsFailingProducer(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()

	f.meds.failing = true
	f.imaging.add(&clinical.ServiceRecord{PatientID: patientID, Code: "870201", Total: 25000})

	records := f.collector.UnbilledServices(context.Background(), patientID)
	if len(records) != 1 {
		t.Fatalf("expected the healthy producer's record, got %d records", len(records))
	}
	if records[0].Code != "870201" {
		t.Errorf("expected code 870201, got %s", records[0].Code)
	}
}

func TestCollector_UnknownPatient(t *testing.T) {
	f := newFixture(t)

	records := f.collector.UnbilledServices(context.Background(), uuid.New())
	if len(records) != 0 {
		t.Errorf("expected empty result for unknown patient, got %d", len(records))
	}
}
