// Package rips builds and stores the RIPS JSON document (Resolución
// 3374/2000) for a finalized invoice: one envelope, one usuario, and the
// invoice's services grouped into the four regulatory categories.
package rips

// Document is the invoice-level envelope. tipoNota/numNota stay null except
// on correction notes, which are emitted by a separate flow.
type Document struct {
	NumDocumentoIdObligado string    `json:"numDocumentoIdObligado"`
	NumFactura             string    `json:"numFactura"`
	TipoNota               *string   `json:"tipoNota"`
	NumNota                *string   `json:"numNota"`
	Usuarios               []Usuario `json:"usuarios"`
}

// Usuario carries the patient demographics plus the categorized services.
type Usuario struct {
	TipoDocumentoIdentificacion  string    `json:"tipoDocumentoIdentificacion"`
	NumDocumentoIdentificacion   string    `json:"numDocumentoIdentificacion"`
	TipoUsuario                  string    `json:"tipoUsuario"`
	FechaNacimiento              string    `json:"fechaNacimiento"`
	CodSexo                      string    `json:"codSexo"`
	CodPaisResidencia            string    `json:"codPaisResidencia"`
	CodMunicipioResidencia       string    `json:"codMunicipioResidencia"`
	CodZonaTerritorialResidencia string    `json:"codZonaTerritorialResidencia"`
	Incapacidad                  string    `json:"incapacidad"`
	Consecutivo                  int       `json:"consecutivo"`
	Servicios                    Servicios `json:"servicios"`
}

// Servicios holds the four category arrays. Empty categories are omitted
// from the serialized document.
type Servicios struct {
	Consultas      []Consulta      `json:"consultas,omitempty"`
	Procedimientos []Procedimiento `json:"procedimientos,omitempty"`
	Medicamentos   []Medicamento   `json:"medicamentos,omitempty"`
	OtrosServicios []OtroServicio  `json:"otrosServicios,omitempty"`
}

type Consulta struct {
	CodPrestador                 string `json:"codPrestador"`
	FechaInicioAtencion          string `json:"fechaInicioAtencion"`
	NumAutorizacion              string `json:"numAutorizacion"`
	CodConsulta                  string `json:"codConsulta"`
	ModalidadGrupoServicioTecSal string `json:"modalidadGrupoServicioTecSal"`
	GrupoServicios               string `json:"grupoServicios"`
	CodServicio                  int    `json:"codServicio"`
	FinalidadTecnologiaSalud     string `json:"finalidadTecnologiaSalud"`
	CausaMotivoAtencion          string `json:"causaMotivoAtencion"`
	CodDiagnosticoPrincipal      string `json:"codDiagnosticoPrincipal"`
	TipoDiagnosticoPrincipal     string `json:"tipoDiagnosticoPrincipal"`
	VrServicio                   int64  `json:"vrServicio"`
	ConceptoRecaudo              string `json:"conceptoRecaudo"`
	ValorPagoModerador           int64  `json:"valorPagoModerador"`
	NumFEVPagoModerador          string `json:"numFEVPagoModerador"`
	Consecutivo                  int    `json:"consecutivo"`
}

type Procedimiento struct {
	CodPrestador                 string  `json:"codPrestador"`
	FechaInicioAtencion          string  `json:"fechaInicioAtencion"`
	NumAutorizacion              string  `json:"numAutorizacion"`
	CodProcedimiento             string  `json:"codProcedimiento"`
	ViaIngresoServicioSalud      string  `json:"viaIngresoServicioSalud"`
	ModalidadGrupoServicioTecSal string  `json:"modalidadGrupoServicioTecSal"`
	GrupoServicios               string  `json:"grupoServicios"`
	CodServicio                  int     `json:"codServicio"`
	FinalidadTecnologiaSalud     string  `json:"finalidadTecnologiaSalud"`
	CodDiagnosticoPrincipal      string  `json:"codDiagnosticoPrincipal"`
	CodDiagnosticoRelacionado    *string `json:"codDiagnosticoRelacionado"`
	CodComplicacion              *string `json:"codComplicacion"`
	VrServicio                   int64   `json:"vrServicio"`
	ConceptoRecaudo              string  `json:"conceptoRecaudo"`
	ValorPagoModerador           int64   `json:"valorPagoModerador"`
	NumFEVPagoModerador          string  `json:"numFEVPagoModerador"`
	Consecutivo                  int     `json:"consecutivo"`
}

type Medicamento struct {
	CodPrestador             string `json:"codPrestador"`
	NumAutorizacion          string `json:"numAutorizacion"`
	FechaDispensAdmon        string `json:"fechaDispensAdmon"`
	CodDiagnosticoPrincipal  string `json:"codDiagnosticoPrincipal"`
	TipoMedicamento          string `json:"tipoMedicamento"`
	CodTecnologiaSalud       string `json:"codTecnologiaSalud"`
	NomTecnologiaSalud       string `json:"nomTecnologiaSalud"`
	ConcentracionMedicamento int    `json:"concentracionMedicamento"`
	UnidadMedida             int    `json:"unidadMedida"`
	FormaFarmaceutica        string `json:"formaFarmaceutica"`
	UnidadMinDispensa        int    `json:"unidadMinDispensa"`
	CantidadMedicamento      int64  `json:"cantidadMedicamento"`
	DiasTratamiento          int    `json:"diasTratamiento"`
	VrUnitMedicamento        int64  `json:"vrUnitMedicamento"`
	VrServicio               int64  `json:"vrServicio"`
	ConceptoRecaudo          string `json:"conceptoRecaudo"`
	ValorPagoModerador       int64  `json:"valorPagoModerador"`
	NumFEVPagoModerador      string `json:"numFEVPagoModerador"`
	Consecutivo              int    `json:"consecutivo"`
}

type OtroServicio struct {
	CodPrestador              string `json:"codPrestador"`
	NumAutorizacion           string `json:"numAutorizacion"`
	FechaSuministroTecnologia string `json:"fechaSuministroTecnologia"`
	TipoOS                    string `json:"tipoOS"`
	CodTecnologiaSalud        string `json:"codTecnologiaSalud"`
	NomTecnologiaSalud        string `json:"nomTecnologiaSalud"`
	CantidadOS                int64  `json:"cantidadOS"`
	VrUnitOS                  int64  `json:"vrUnitOS"`
	VrServicio                int64  `json:"vrServicio"`
	ConceptoRecaudo           string `json:"conceptoRecaudo"`
	ValorPagoModerador        int64  `json:"valorPagoModerador"`
	NumFEVPagoModerador       string `json:"numFEVPagoModerador"`
	Consecutivo               int    `json:"consecutivo"`
}

// TotalServices counts the entries across all four category arrays.
func (d *Document) TotalServices() int {
	n := 0
	for _, u := range d.Usuarios {
		n += len(u.Servicios.Consultas) +
			len(u.Servicios.Procedimientos) +
			len(u.Servicios.Medicamentos) +
			len(u.Servicios.OtrosServicios)
	}
	return n
}
