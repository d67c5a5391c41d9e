package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"
)

// httpClient speaks MCP's JSON-RPC envelope over sse/streamable-http,
// the same raw-JSON-RPC-plus-retry approach the teacher uses for these
// transports (it does not route them through mark3labs/mcp-go either),
// generalized to the bounded exponential backoff spec §4.6 requires
// for reconnection (max_retries=5, initial=2s, factor=2.0, max=60s by
// default).
type httpClient struct {
	spec   ServerSpec
	client *http.Client

	sessionMu sync.RWMutex
	sessionID string

	nextID int
	idMu   sync.Mutex
}

func dialHTTP(ctx context.Context, spec ServerSpec) (Client, error) {
	timeout := spec.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	c := &httpClient{
		spec:   spec,
		client: &http.Client{Timeout: timeout},
	}

	resp, err := c.call(ctx, "initialize", map[string]any{
		"protocolVersion": firstNonEmpty(spec.Version, "2024-11-05"),
		"clientInfo":      map[string]any{"name": "swarm-engine", "version": "1.0.0"},
		"capabilities":    map[string]any{},
	})
	if err != nil {
		return nil, fmt.Errorf("mcp initialize %q: %w", spec.Name, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("mcp initialize %q: %s", spec.Name, resp.Error.Message)
	}
	return c, nil
}

func (c *httpClient) ListTools(ctx context.Context) ([]ToolInfo, error) {
	resp, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, fmt.Errorf("mcp tools/list %q: %w", c.spec.Name, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("mcp tools/list %q: %s", c.spec.Name, resp.Error.Message)
	}

	resultMap, ok := resp.Result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("mcp tools/list %q: unexpected result shape", c.spec.Name)
	}
	rawTools, _ := resultMap["tools"].([]any)
	out := make([]ToolInfo, 0, len(rawTools))
	for _, raw := range rawTools {
		tm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := tm["name"].(string)
		desc, _ := tm["description"].(string)
		schema, _ := tm["inputSchema"].(map[string]any)
		out = append(out, ToolInfo{Name: name, Description: desc, InputSchema: schema})
	}
	return out, nil
}

func (c *httpClient) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	resp, err := c.call(ctx, "tools/call", map[string]any{"name": name, "arguments": args})
	if err != nil {
		return nil, fmt.Errorf("mcp tools/call %q on %q: %w", name, c.spec.Name, err)
	}
	if resp.Error != nil {
		return map[string]any{"error": resp.Error.Message}, nil
	}

	resultMap, ok := resp.Result.(map[string]any)
	if !ok {
		return map[string]any{"result": resp.Result}, nil
	}
	if isError, _ := resultMap["isError"].(bool); isError {
		return map[string]any{"error": firstTextFrom(resultMap)}, nil
	}
	texts := allTextsFrom(resultMap)
	switch len(texts) {
	case 0:
		return map[string]any{}, nil
	case 1:
		return map[string]any{"result": texts[0]}, nil
	default:
		return map[string]any{"results": texts}, nil
	}
}

func (c *httpClient) Close() error { return nil }

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonRPCError `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call sends one JSON-RPC request, retrying transport-level failures
// and 5xx/429 responses with bounded exponential backoff.
func (c *httpClient) call(ctx context.Context, method string, params any) (*jsonRPCResponse, error) {
	policy := c.spec.Retry
	if policy.MaxRetries == 0 && policy.Initial == 0 {
		policy = DefaultRetryPolicy()
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		resp, retryable, err := c.attempt(ctx, method, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable || attempt == policy.MaxRetries {
			break
		}
		delay := backoffDelay(policy, attempt)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := time.Duration(float64(policy.Initial) * math.Pow(policy.Factor, float64(attempt)))
	if delay > policy.Max {
		delay = policy.Max
	}
	return delay
}

func (c *httpClient) attempt(ctx context.Context, method string, params any) (*jsonRPCResponse, bool, error) {
	c.idMu.Lock()
	c.nextID++
	id := c.nextID
	c.idMu.Unlock()

	body, err := json.Marshal(jsonRPCRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.spec.URL, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range c.spec.Headers {
		req.Header.Set(k, v)
	}
	c.sessionMu.RLock()
	sessionID := c.sessionID
	c.sessionMu.RUnlock()
	if sessionID != "" {
		req.Header.Set("mcp-session-id", sessionID)
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer httpResp.Body.Close()

	if newSessionID := httpResp.Header.Get("mcp-session-id"); newSessionID != "" {
		c.sessionMu.Lock()
		c.sessionID = newSessionID
		c.sessionMu.Unlock()
	}

	if httpResp.StatusCode != http.StatusOK {
		retryable := httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("HTTP %d", httpResp.StatusCode)
	}

	if strings.Contains(httpResp.Header.Get("Content-Type"), "text/event-stream") {
		resp, err := readSSEResponse(httpResp.Body, c.spec.RequestTimeout)
		return resp, err != nil, err
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, true, err
	}
	var resp jsonRPCResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, false, fmt.Errorf("decode mcp response: %w", err)
	}
	return &resp, false, nil
}

// readSSEResponse reads the first complete JSON-RPC event from an SSE
// body, the same framing the teacher parses for streamable/sse
// transports.
func readSSEResponse(body io.Reader, timeout time.Duration) (*jsonRPCResponse, error) {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	type result struct {
		resp *jsonRPCResponse
		err  error
	}
	done := make(chan result, 1)

	go func() {
		reader := bufio.NewReader(body)
		var data strings.Builder
		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				break
			}
			text := strings.TrimSpace(string(line))
			if text == "" {
				if data.Len() == 0 {
					continue
				}
				var resp jsonRPCResponse
				if err := json.Unmarshal([]byte(data.String()), &resp); err == nil {
					done <- result{resp: &resp}
					return
				}
				data.Reset()
				continue
			}
			if strings.HasPrefix(text, "data:") {
				data.WriteString(strings.TrimSpace(strings.TrimPrefix(text, "data:")))
			}
		}
		done <- result{err: fmt.Errorf("sse stream ended without a complete message")}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout reading sse response after %v", timeout)
	}
}

func firstTextFrom(resultMap map[string]any) string {
	texts := allTextsFrom(resultMap)
	if len(texts) == 0 {
		return "unknown error"
	}
	return texts[0]
}

func allTextsFrom(resultMap map[string]any) []string {
	content, ok := resultMap["content"].([]any)
	if !ok {
		return nil
	}
	var texts []string
	for _, c := range content {
		cm, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if cm["type"] == "text" {
			if text, ok := cm["text"].(string); ok {
				texts = append(texts, text)
			}
		}
	}
	return texts
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
