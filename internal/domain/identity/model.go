package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient holds the demographic data the regulatory export depends on.
// Optional fields are pointers; the RIPS builder validates presence of the
// mandatory ones before emitting a document.
type Patient struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	DocumentType     string     `db:"document_type" json:"document_type"`
	DocumentNumber   string     `db:"document_number" json:"document_number"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	BirthDate        *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Sex              string     `db:"sex" json:"sex"`
	Regime           string     `db:"regime" json:"regime"`
	CountryCode      string     `db:"country_code" json:"country_code"`
	MunicipalityCode string     `db:"municipality_code" json:"municipality_code"`
	ZoneCode         string     `db:"zone_code" json:"zone_code"`
	Incapacity       string     `db:"incapacity" json:"incapacity"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Payer is the insurer (EPS) financially responsible for an invoice.
type Payer struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	NIT       string    `db:"nit" json:"nit"`
	EPSCode   string    `db:"eps_code" json:"eps_code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Identity document types accepted on patients.
var validDocumentTypes = map[string]bool{
	"CC": true, // cédula de ciudadanía
	"TI": true, // tarjeta de identidad
	"RC": true, // registro civil
	"CE": true, // cédula de extranjería
	"PA": true, // pasaporte
	"MS": true, // menor sin identificación
	"AS": true, // adulto sin identificación
}

// Affiliation regimes recognized by the RIPS tipoUsuario mapping.
var validRegimes = map[string]bool{
	"contributivo": true,
	"subsidiado":   true,
	"vinculado":    true,
	"particular":   true,
	"especial":     true,
}
