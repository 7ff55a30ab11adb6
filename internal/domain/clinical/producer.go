package clinical

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Producer is implemented once per clinical module. ListUnbilled feeds the
// unbilled-service collection; GetForUpdate and MarkBilled run inside the
// invoice assembly transaction, so implementations must honor a context tx.
type Producer interface {
	Kind() ServiceKind
	ListUnbilled(ctx context.Context, patientID uuid.UUID) ([]*ServiceRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*ServiceRecord, error)
	// GetForUpdate fetches the record with an exclusive row lock held for
	// the remainder of the surrounding transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*ServiceRecord, error)
	// MarkBilled is idempotent; flipping an already-billed record is a no-op.
	MarkBilled(ctx context.Context, id uuid.UUID) error
}

// Registry is the static set of producers, built once at startup and
// read-only afterwards. Adding a clinical module means registering its
// producer here; the billing core never changes.
type Registry struct {
	producers map[ServiceKind]Producer
	order     []ServiceKind
}

func NewRegistry(producers ...Producer) (*Registry, error) {
	r := &Registry{producers: make(map[ServiceKind]Producer, len(producers))}
	for _, p := range producers {
		kind := p.Kind()
		if !ValidKind(kind) {
			return nil, fmt.Errorf("unknown service kind: %s", kind)
		}
		if _, dup := r.producers[kind]; dup {
			return nil, fmt.Errorf("duplicate producer for kind %s", kind)
		}
		r.producers[kind] = p
		r.order = append(r.order, kind)
	}
	return r, nil
}

// Lookup returns the producer for a kind.
func (r *Registry) Lookup(kind ServiceKind) (Producer, bool) {
	p, ok := r.producers[kind]
	return p, ok
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []ServiceKind {
	out := make([]ServiceKind, len(r.order))
	copy(out, r.order)
	return out
}
