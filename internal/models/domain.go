package models

// Domain reference tables. Seeded from a static list, read-only afterwards.

type ModalidadeContratacao struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Nome  string `gorm:"not null" json:"nome"`
	Ativo bool   `gorm:"not null;default:true" json:"ativo"`
}

func (ModalidadeContratacao) TableName() string { return "modalidades_contratacao" }

type ModoDisputa struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Nome  string `gorm:"not null" json:"nome"`
	Ativo bool   `gorm:"not null;default:true" json:"ativo"`
}

func (ModoDisputa) TableName() string { return "modos_disputa" }

type SituacaoContratacao struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Nome  string `gorm:"not null" json:"nome"`
	Ativo bool   `gorm:"not null;default:true" json:"ativo"`
}

func (SituacaoContratacao) TableName() string { return "situacoes_contratacao" }

var Modalidades = []ModalidadeContratacao{
	{ID: 1, Nome: "Leilão - Eletrônico", Ativo: true},
	{ID: 2, Nome: "Diálogo Competitivo", Ativo: true},
	{ID: 3, Nome: "Concurso", Ativo: true},
	{ID: 4, Nome: "Concorrência - Eletrônica", Ativo: true},
	{ID: 5, Nome: "Concorrência - Presencial", Ativo: true},
	{ID: 6, Nome: "Pregão - Eletrônico", Ativo: true},
	{ID: 7, Nome: "Pregão - Presencial", Ativo: true},
	{ID: 8, Nome: "Dispensa de Licitação", Ativo: true},
	{ID: 9, Nome: "Inexigibilidade", Ativo: true},
	{ID: 10, Nome: "Manifestação de Interesse", Ativo: true},
	{ID: 11, Nome: "Pré-qualificação", Ativo: true},
	{ID: 12, Nome: "Credenciamento", Ativo: true},
	{ID: 13, Nome: "Leilão - Presencial", Ativo: true},
}

var ModosDisputa = []ModoDisputa{
	{ID: 1, Nome: "Aberto", Ativo: true},
	{ID: 2, Nome: "Fechado", Ativo: true},
	{ID: 3, Nome: "Aberto-Fechado", Ativo: true},
	{ID: 4, Nome: "Dispensa Com Disputa", Ativo: true},
	{ID: 5, Nome: "Não se aplica", Ativo: true},
	{ID: 6, Nome: "Fechado-Aberto", Ativo: true},
}

var Situacoes = []SituacaoContratacao{
	{ID: 1, Nome: "Divulgada no PNCP", Ativo: true},
	{ID: 2, Nome: "Revogada", Ativo: true},
	{ID: 3, Nome: "Anulada", Ativo: true},
	{ID: 4, Nome: "Suspensa", Ativo: true},
}
