package mcp

// Tool describes an MCP tool and the API route it proxies.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`

	path     string
	args     []string
	required []string
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func schema(props map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func newTool(name, description, path string, props map[string]any, required []string) Tool {
	args := make([]string, 0, len(props))
	for k := range props {
		args = append(args, k)
	}

	return Tool{
		Name:        name,
		Description: description,
		InputSchema: schema(props, required),
		path:        path,
		args:        args,
		required:    required,
	}
}

// DefaultTools maps the mirror's read and sync routes to tools.
func DefaultTools() []Tool {
	date := "Data no formato AAAAMMDD (ex: 20241201)."
	pagination := func(props map[string]any) map[string]any {
		props["pagina"] = intProp("Página (padrão 1).")
		props["tamanhoPagina"] = intProp("Registros por página, até 500 (padrão 50).")
		return props
	}

	return []Tool{
		newTool("buscar_historico",
			"Busca contratações publicadas no PNCP no período e grava o resultado no espelho.",
			"/api/contratacoes/historico",
			pagination(map[string]any{
				"dataInicial":                 stringProp(date),
				"dataFinal":                   stringProp(date),
				"codigoModalidadeContratacao": intProp("Código da modalidade (ver listar_modalidades)."),
				"uf":                          stringProp("Sigla da UF."),
				"cnpj":                        stringProp("CNPJ do órgão."),
			}),
			[]string{"dataInicial", "dataFinal", "codigoModalidadeContratacao"}),
		newTool("buscar_oportunidades",
			"Busca contratações com propostas abertas até a data final.",
			"/api/contratacoes/oportunidades",
			pagination(map[string]any{
				"dataFinal":                   stringProp(date),
				"codigoModalidadeContratacao": intProp("Código da modalidade (ver listar_modalidades)."),
				"uf":                          stringProp("Sigla da UF."),
				"cnpj":                        stringProp("CNPJ do órgão."),
			}),
			[]string{"dataFinal", "codigoModalidadeContratacao"}),
		newTool("buscar_atas",
			"Busca atas de registro de preço vigentes no período.",
			"/api/contratacoes/atas",
			pagination(map[string]any{
				"dataInicial": stringProp(date),
				"dataFinal":   stringProp(date),
				"cnpj":        stringProp("CNPJ do órgão."),
			}),
			[]string{"dataInicial", "dataFinal"}),
		newTool("listar_modalidades",
			"Lista as modalidades de contratação ativas.",
			"/api/domain/modalidades",
			map[string]any{}, nil),
		newTool("ultimas_chamadas",
			"Lista as últimas chamadas feitas à API do PNCP.",
			"/api/chamadas",
			map[string]any{"limit": intProp("Quantidade (padrão 50, máximo 500).")},
			nil),
	}
}
