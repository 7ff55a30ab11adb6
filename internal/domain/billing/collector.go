package billing

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Jorgecuenca1/contabilidad/internal/domain/clinical"
)

// Collector fans out over every registered producer and returns the
// patient's unbilled services as one normalized list, most recent first.
// A failing producer is skipped and logged; the rest still contribute.
// The snapshot is advisory only: assembly re-checks billed state under lock.
type Collector struct {
	registry *clinical.Registry
	log      zerolog.Logger
}

func NewCollector(registry *clinical.Registry, log zerolog.Logger) *Collector {
	return &Collector{registry: registry, log: log}
}

func (c *Collector) UnbilledServices(ctx context.Context, patientID uuid.UUID) []*clinical.ServiceRecord {
	var all []*clinical.ServiceRecord
	for _, kind := range c.registry.Kinds() {
		producer, _ := c.registry.Lookup(kind)
		records, err := producer.ListUnbilled(ctx, patientID)
		if err != nil {
			c.log.Warn().Err(err).
				Str("producer", string(kind)).
				Str("patient_id", patientID.String()).
				Msg("unbilled query failed, producer skipped")
			continue
		}
		all = append(all, records...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ServiceDate.After(all[j].ServiceDate)
	})
	return all
}
