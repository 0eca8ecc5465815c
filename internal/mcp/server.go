package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"pncp/internal/logging"
)

var errEmptyLine = errors.New("empty line")

// Server answers MCP requests read line by line from in. Responses go to out;
// logs must never be written there.
type Server struct {
	baseURL string
	client  *http.Client
	tools   []Tool

	in    *bufio.Reader
	out   *bufio.Writer
	outMu sync.Mutex
}

func NewServer(baseURL string, in io.Reader, out io.Writer) *Server {
	return &Server{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		tools:   DefaultTools(),
		in:      bufio.NewReader(in),
		out:     bufio.NewWriter(out),
	}
}

// Serve runs the read/dispatch/write loop until EOF, a shutdown request or
// ctx cancellation, then waits for in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	for ctx.Err() == nil {
		req, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if !errors.Is(err, errEmptyLine) {
				logging.Warn().Err(err).Msg("failed to read message")
			}
			continue
		}

		if req.Method == "shutdown" || req.Method == "notifications/exit" {
			if req.Method == "shutdown" {
				if err := s.writeMessage(s.reply(req, nil)); err != nil {
					return err
				}
			}
			return nil
		}

		wg.Add(1)
		go func(r Request) {
			defer wg.Done()

			resp := s.handleRequest(ctx, r)
			if resp == nil {
				return
			}

			if err := s.writeMessage(*resp); err != nil {
				logging.Error().Err(err).Msg("failed to write message")
			}
		}(req)
	}

	return ctx.Err()
}

func (s *Server) handleRequest(ctx context.Context, req Request) *Response {
	switch req.Method {
	case "initialize":
		resp := s.reply(req, InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: map[string]any{
				"tools": map[string]any{},
			},
			ServerInfo: map[string]any{
				"name":    "pncp-mcp",
				"version": "1.0.0",
			},
		})
		return &resp

	case "notifications/initialized":
		return nil

	case "tools/list":
		resp := s.reply(req, ListToolsResult{Tools: s.tools})
		return &resp

	case "tools/call":
		return s.handleToolCall(ctx, req)

	case "ping":
		resp := s.reply(req, map[string]any{})
		return &resp
	}

	return s.error(req, codeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
}

func (s *Server) handleToolCall(ctx context.Context, req Request) *Response {
	var params ToolCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return s.error(req, codeInvalidParams, "invalid params", err.Error())
		}
	}

	idx := slices.IndexFunc(s.tools, func(t Tool) bool { return t.Name == params.Name })
	if idx < 0 {
		return s.error(req, codeMethodNotFound, fmt.Sprintf("tool not found: %s", params.Name), nil)
	}

	result, rpcErr := s.callTool(ctx, s.tools[idx], params.Arguments)
	if rpcErr != nil {
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
	}

	resp := s.reply(req, result)
	return &resp
}

// callTool forwards the arguments as query parameters. An API error is a
// tool result flagged isError, not a protocol error.
func (s *Server) callTool(ctx context.Context, tool Tool, args map[string]any) (*ToolCallResult, *ResponseError) {
	q := url.Values{}
	for _, name := range tool.args {
		raw, ok := args[name]
		if !ok || raw == nil {
			continue
		}

		v, err := queryValue(raw)
		if err != nil {
			return nil, &ResponseError{Code: codeInvalidParams, Message: fmt.Sprintf("%s: %v", name, err)}
		}
		q.Set(name, v)
	}

	for _, name := range tool.required {
		if q.Get(name) == "" {
			return nil, &ResponseError{Code: codeInvalidParams, Message: name + " is required"}
		}
	}

	urlStr := s.baseURL + tool.path
	if len(q) > 0 {
		urlStr += "?" + q.Encode()
	}

	logging.Debug().Str("tool", tool.Name).Str("url", urlStr).Msg("calling api")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &ResponseError{Code: codeServerError, Message: "failed to build request", Data: err.Error()}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ResponseError{Code: codeServerError, Message: "request failed", Data: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ResponseError{Code: codeServerError, Message: "failed to read response", Data: err.Error()}
	}

	return &ToolCallResult{
		Content: []ContentItem{{Type: "text", Text: string(body)}},
		IsError: resp.StatusCode >= 300,
	}, nil
}

func queryValue(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case float64:
		if v != float64(int64(v)) {
			return "", fmt.Errorf("must be an integer")
		}
		return strconv.FormatInt(int64(v), 10), nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("unsupported type %T", raw)
	}
}

func (s *Server) reply(req Request, result any) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

func (s *Server) error(req Request, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Error: &ResponseError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// readMessage reads one NDJSON line.
func (s *Server) readMessage() (Request, error) {
	line, err := s.in.ReadBytes('\n')
	if err != nil && (len(bytes.TrimSpace(line)) == 0 || !errors.Is(err, io.EOF)) {
		return Request{}, err
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Request{}, errEmptyLine
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("json parse error: %w", err)
	}

	return req, nil
}

func (s *Server) writeMessage(resp Response) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	if _, err := s.out.Write(payload); err != nil {
		return err
	}
	if err := s.out.WriteByte('\n'); err != nil {
		return err
	}

	return s.out.Flush()
}
