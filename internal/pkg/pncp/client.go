package pncp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pncp/internal/apperrors"
	"pncp/internal/logging"
	"pncp/internal/metrics"

	"golang.org/x/time/rate"
)

/*
	ok: {
		"data": [ { "numeroControlePNCP": "00394460005887-1-000001/2024", ... } ],
		"totalRegistros": 1,
		"totalPaginas": 1,
		"numeroPagina": 1,
		"paginasRestantes": 0,
		"empty": false
	}

	err: {"timestamp":"2024-12-01T10:00:00","status":400,"error":"Bad Request","message":"Data inicial inválida","path":"/v1/contratacoes/publicacao"}

	no results: HTTP 204 with an empty body
*/

const DefaultBaseURL = "https://pncp.gov.br/api/consulta"

const connectionErrorMessage = "Erro de conexão com a API do PNCP"

// Page is one page of an upstream consultation. Data is kept as received so
// callers can forward it untouched; Normalize turns it into records.
type Page struct {
	Data             json.RawMessage `json:"data"`
	TotalRegistros   int             `json:"totalRegistros"`
	TotalPaginas     int             `json:"totalPaginas"`
	NumeroPagina     int             `json:"numeroPagina"`
	PaginasRestantes int             `json:"paginasRestantes"`
	Empty            bool            `json:"empty"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

// WithRateLimit spaces requests to at most perSecond per second. Zero is unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// New builds a client for baseURL. A zero timeout leaves the transport defaults in place.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// UseDefaultClient switches to http.DefaultClient so tests can swap its transport.
func (c *Client) UseDefaultClient() {
	c.client = http.DefaultClient
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchPage issues one GET for p and decodes the paginated envelope.
func (c *Client) FetchPage(ctx context.Context, p Params) (*Page, error) {
	rt := p.Report()
	u := fmt.Sprintf("%s%s?%s", c.baseURL, rt.Path(), p.Query().Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &apperrors.UpstreamError{Status: http.StatusInternalServerError, Message: connectionErrorMessage, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &apperrors.UpstreamError{Status: http.StatusInternalServerError, Message: connectionErrorMessage, Err: err}
		}
	}

	logging.Ctx(ctx).Debug().Str("report", rt.String()).Str("url", u).Msg("pncp request")

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(rt.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(rt.String(), "transport_error").Inc()
		return nil, &apperrors.UpstreamError{Status: http.StatusInternalServerError, Message: connectionErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues(rt.String(), strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.UpstreamError{Status: http.StatusInternalServerError, Message: connectionErrorMessage, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, body)
	}

	if resp.StatusCode == http.StatusNoContent || len(strings.TrimSpace(string(body))) == 0 {
		return emptyPage(p), nil
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &apperrors.UpstreamError{
			Status:  http.StatusBadGateway,
			Message: "Resposta inválida da API do PNCP",
			Err:     err,
		}
	}

	if len(page.Data) == 0 || string(page.Data) == "null" {
		page.Data = json.RawMessage("[]")
	}

	return &page, nil
}

func newStatusError(status int, body []byte) *apperrors.UpstreamError {
	upstreamErr := &apperrors.UpstreamError{
		Status:  status,
		Message: fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return upstreamErr
	}

	switch {
	case eb.Message != "":
		upstreamErr.Message = eb.Message
	case eb.Error != "":
		upstreamErr.Message = eb.Error
	}
	upstreamErr.Details = eb.Details

	return upstreamErr
}

func emptyPage(p Params) *Page {
	return &Page{
		Data:         json.RawMessage("[]"),
		NumeroPagina: p.pagination().Pagina,
		Empty:        true,
	}
}
