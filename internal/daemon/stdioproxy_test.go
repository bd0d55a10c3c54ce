package daemon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStdioProxyForwardsToDaemon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`))
	}))
	defer srv.Close()

	p := NewStdioProxy(srv.URL)
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n")
	var out bytes.Buffer

	if err := p.Run(in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), `"ok":true`) {
		t.Fatalf("expected daemon response forwarded, got %q", out.String())
	}
}

func TestStdioProxyReturnsRPCErrorWhenUnreachable(t *testing.T) {
	p := NewStdioProxy("http://127.0.0.1:1")
	in := strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"tools/list"}` + "\n")
	var out bytes.Buffer

	if err := p.Run(in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	var resp struct {
		ID    int `json:"id"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v (raw=%s)", err, out.String())
	}
	if resp.Error == nil {
		t.Fatalf("expected an error envelope, got %s", out.String())
	}
	if resp.ID != 7 {
		t.Fatalf("expected original request id preserved, got %d", resp.ID)
	}
}
