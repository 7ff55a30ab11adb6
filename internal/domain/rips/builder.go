package rips

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Jorgecuenca1/contabilidad/internal/domain/billing"
	"github.com/Jorgecuenca1/contabilidad/internal/domain/clinical"
	"github.com/Jorgecuenca1/contabilidad/internal/domain/identity"
)

// Regulatory constants from Resolución 3374/2000 annexes. These are fixed
// per category, not derived from the service record.
const (
	attentionDateLayout = "2006-01-02 15:04"
	birthDateLayout     = "2006-01-02"

	consultaModalidad    = "01"
	consultaGrupo        = "01"
	consultaCodServicio  = 110
	consultaFinalidad    = "10"
	consultaCausaMotivo  = "21"
	consultaTipoDx       = "01"
	procedimientoVia     = "01"
	procedimientoGrupo   = "03"
	procedimientoCodServ = 300
	procedimientoFinal   = "02"
	medicamentoTipo      = "01"
	medicamentoUnidad    = 159
	medicamentoForma     = "COLFF004"
	medicamentoMinDisp   = 74
	otroServicioTipo     = "01"
	conceptoRecaudo      = "05"
)

// tipoUsuario per affiliation regime.
var regimeUserType = map[string]string{
	"contributivo": "01",
	"subsidiado":   "02",
	"vinculado":    "03",
	"particular":   "04",
	"especial":     "05",
}

// Builder turns one finalized invoice into a Document. It re-resolves every
// line item through the producer registry; classification into the four
// categories is a fixed lookup on the service kind.
type Builder struct {
	registry    *clinical.Registry
	obligatedID string
}

func NewBuilder(registry *clinical.Registry, obligatedID string) *Builder {
	return &Builder{registry: registry, obligatedID: obligatedID}
}

// Build assembles the document. It fails with IncompleteDataError when the
// patient lacks mandatory demographics, and with DanglingReferenceError
// when a line item's source record is gone; nothing is ever skipped
// silently.
func (b *Builder) Build(ctx context.Context, inv *billing.Invoice, items []*billing.LineItem, patient *identity.Patient) (*Document, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("invoice %s has no line items", inv.Number)
	}

	usuario, err := b.buildUsuario(patient)
	if err != nil {
		return nil, err
	}

	consecutivo := 0
	for _, item := range items {
		rec, err := b.resolve(ctx, item)
		if err != nil {
			return nil, err
		}

		consecutivo++
		switch item.ServiceKind {
		case clinical.KindConsultation:
			usuario.Servicios.Consultas = append(usuario.Servicios.Consultas, b.buildConsulta(rec, item, consecutivo))
		case clinical.KindImaging, clinical.KindSurgery:
			usuario.Servicios.Procedimientos = append(usuario.Servicios.Procedimientos, b.buildProcedimiento(rec, item, consecutivo))
		case clinical.KindMedication:
			usuario.Servicios.Medicamentos = append(usuario.Servicios.Medicamentos, b.buildMedicamento(rec, item, consecutivo))
		case clinical.KindHospitalization:
			usuario.Servicios.OtrosServicios = append(usuario.Servicios.OtrosServicios, b.buildOtroServicio(rec, item, consecutivo))
		default:
			return nil, fmt.Errorf("line item %s has unknown service kind %s", item.ID, item.ServiceKind)
		}
	}

	return &Document{
		NumDocumentoIdObligado: b.obligatedID,
		NumFactura:             inv.Number,
		TipoNota:               nil,
		NumNota:                nil,
		Usuarios:               []Usuario{*usuario},
	}, nil
}

func (b *Builder) resolve(ctx context.Context, item *billing.LineItem) (*clinical.ServiceRecord, error) {
	producer, ok := b.registry.Lookup(item.ServiceKind)
	if !ok {
		return nil, &DanglingReferenceError{Kind: item.ServiceKind, ID: item.ServiceID}
	}
	rec, err := producer.Get(ctx, item.ServiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &DanglingReferenceError{Kind: item.ServiceKind, ID: item.ServiceID}
		}
		return nil, fmt.Errorf("resolve %s/%s: %w", item.ServiceKind, item.ServiceID, err)
	}
	return rec, nil
}

// buildUsuario validates the mandatory demographics and maps them onto the
// usuario block. Every missing field is reported; none is defaulted.
func (b *Builder) buildUsuario(p *identity.Patient) (*Usuario, error) {
	var missing []string
	if p.DocumentType == "" {
		missing = append(missing, "document_type")
	}
	if p.DocumentNumber == "" {
		missing = append(missing, "document_number")
	}
	if p.BirthDate == nil {
		missing = append(missing, "birth_date")
	}
	if p.Sex == "" {
		missing = append(missing, "sex")
	}
	if p.Regime == "" {
		missing = append(missing, "regime")
	}
	if p.CountryCode == "" {
		missing = append(missing, "country_code")
	}
	if p.MunicipalityCode == "" {
		missing = append(missing, "municipality_code")
	}
	if p.ZoneCode == "" {
		missing = append(missing, "zone_code")
	}
	if len(missing) > 0 {
		return nil, &IncompleteDataError{Missing: missing}
	}

	userType, ok := regimeUserType[p.Regime]
	if !ok {
		return nil, &IncompleteDataError{Missing: []string{"regime"}}
	}

	incapacity := p.Incapacity
	if incapacity == "" {
		incapacity = "NO"
	}

	return &Usuario{
		TipoDocumentoIdentificacion:  p.DocumentType,
		NumDocumentoIdentificacion:   p.DocumentNumber,
		TipoUsuario:                  userType,
		FechaNacimiento:              p.BirthDate.Format(birthDateLayout),
		CodSexo:                      p.Sex,
		CodPaisResidencia:            p.CountryCode,
		CodMunicipioResidencia:       p.MunicipalityCode,
		CodZonaTerritorialResidencia: p.ZoneCode,
		Incapacidad:                  incapacity,
		Consecutivo:                  1,
	}, nil
}

func (b *Builder) buildConsulta(rec *clinical.ServiceRecord, item *billing.LineItem, consecutivo int) Consulta {
	return Consulta{
		CodPrestador:                 b.obligatedID,
		FechaInicioAtencion:          item.ServiceDate.Format(attentionDateLayout),
		NumAutorizacion:              rec.AuthorizationNumber,
		CodConsulta:                  item.Code,
		ModalidadGrupoServicioTecSal: consultaModalidad,
		GrupoServicios:               consultaGrupo,
		CodServicio:                  consultaCodServicio,
		FinalidadTecnologiaSalud:     consultaFinalidad,
		CausaMotivoAtencion:          consultaCausaMotivo,
		CodDiagnosticoPrincipal:      rec.DiagnosisCode,
		TipoDiagnosticoPrincipal:     consultaTipoDx,
		VrServicio:                   item.Total,
		ConceptoRecaudo:              conceptoRecaudo,
		ValorPagoModerador:           0,
		NumFEVPagoModerador:          "",
		Consecutivo:                  consecutivo,
	}
}

func (b *Builder) buildProcedimiento(rec *clinical.ServiceRecord, item *billing.LineItem, consecutivo int) Procedimiento {
	var related *string
	if rec.RelatedDiagnosisCode != "" {
		related = &rec.RelatedDiagnosisCode
	}
	return Procedimiento{
		CodPrestador:                 b.obligatedID,
		FechaInicioAtencion:          item.ServiceDate.Format(attentionDateLayout),
		NumAutorizacion:              rec.AuthorizationNumber,
		CodProcedimiento:             item.Code,
		ViaIngresoServicioSalud:      procedimientoVia,
		ModalidadGrupoServicioTecSal: consultaModalidad,
		GrupoServicios:               procedimientoGrupo,
		CodServicio:                  procedimientoCodServ,
		FinalidadTecnologiaSalud:     procedimientoFinal,
		CodDiagnosticoPrincipal:      rec.DiagnosisCode,
		CodDiagnosticoRelacionado:    related,
		CodComplicacion:              nil,
		VrServicio:                   item.Total,
		ConceptoRecaudo:              conceptoRecaudo,
		ValorPagoModerador:           0,
		NumFEVPagoModerador:          "",
		Consecutivo:                  consecutivo,
	}
}

func (b *Builder) buildMedicamento(rec *clinical.ServiceRecord, item *billing.LineItem, consecutivo int) Medicamento {
	return Medicamento{
		CodPrestador:             b.obligatedID,
		NumAutorizacion:          rec.AuthorizationNumber,
		FechaDispensAdmon:        item.ServiceDate.Format(attentionDateLayout),
		CodDiagnosticoPrincipal:  rec.DiagnosisCode,
		TipoMedicamento:          medicamentoTipo,
		CodTecnologiaSalud:       item.Code,
		NomTecnologiaSalud:       item.Name,
		ConcentracionMedicamento: 0,
		UnidadMedida:             medicamentoUnidad,
		FormaFarmaceutica:        medicamentoForma,
		UnidadMinDispensa:        medicamentoMinDisp,
		CantidadMedicamento:      item.Quantity,
		DiasTratamiento:          1,
		VrUnitMedicamento:        item.UnitPrice,
		VrServicio:               item.Total,
		ConceptoRecaudo:          conceptoRecaudo,
		ValorPagoModerador:       0,
		NumFEVPagoModerador:      "",
		Consecutivo:              consecutivo,
	}
}

func (b *Builder) buildOtroServicio(rec *clinical.ServiceRecord, item *billing.LineItem, consecutivo int) OtroServicio {
	return OtroServicio{
		CodPrestador:              b.obligatedID,
		NumAutorizacion:           rec.AuthorizationNumber,
		FechaSuministroTecnologia: item.ServiceDate.Format(attentionDateLayout),
		TipoOS:                    otroServicioTipo,
		CodTecnologiaSalud:        item.Code,
		NomTecnologiaSalud:        item.Name,
		CantidadOS:                item.Quantity,
		VrUnitOS:                  item.UnitPrice,
		VrServicio:                item.Total,
		ConceptoRecaudo:           conceptoRecaudo,
		ValorPagoModerador:        0,
		NumFEVPagoModerador:       "",
		Consecutivo:               consecutivo,
	}
}
