package pncp

import "fmt"

// ReportType selects one of the three PNCP consultations mirrored here.
type ReportType int

const (
	ReportHistorico ReportType = iota + 1
	ReportOportunidades
	ReportAtas
)

const (
	pathContratacoesPublicacao = "/v1/contratacoes/publicacao"
	pathContratacoesProposta   = "/v1/contratacoes/proposta"
	pathAtas                   = "/v1/atas"
)

// Path is the upstream path suffix appended to the base URL.
func (r ReportType) Path() string {
	switch r {
	case ReportHistorico:
		return pathContratacoesPublicacao
	case ReportOportunidades:
		return pathContratacoesProposta
	case ReportAtas:
		return pathAtas
	default:
		return ""
	}
}

// Marker is the endpoint identifier written to the call log, named after the
// section of the PNCP consultation manual that documents the report.
func (r ReportType) Marker() string {
	switch r {
	case ReportHistorico:
		return "6.3"
	case ReportOportunidades:
		return "6.4"
	case ReportAtas:
		return "6.5"
	default:
		return ""
	}
}

func (r ReportType) String() string {
	switch r {
	case ReportHistorico:
		return "historico"
	case ReportOportunidades:
		return "oportunidades"
	case ReportAtas:
		return "atas"
	default:
		return fmt.Sprintf("report(%d)", int(r))
	}
}

// ParseReportType is the inverse of String.
func ParseReportType(s string) (ReportType, error) {
	switch s {
	case "historico":
		return ReportHistorico, nil
	case "oportunidades":
		return ReportOportunidades, nil
	case "atas":
		return ReportAtas, nil
	default:
		return 0, fmt.Errorf("unknown report %q", s)
	}
}

// NewParams returns an empty filter set for r, ready to be decoded into.
func NewParams(r ReportType) (Params, error) {
	switch r {
	case ReportHistorico:
		return &HistoricoParams{}, nil
	case ReportOportunidades:
		return &OportunidadeParams{}, nil
	case ReportAtas:
		return &AtaParams{}, nil
	default:
		return nil, fmt.Errorf("unknown report type %d", int(r))
	}
}
