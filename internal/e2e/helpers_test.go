package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"textgend/internal/engine"
	"textgend/internal/generator"
	"textgend/internal/httpapi"
	"textgend/internal/registry"
	"textgend/internal/rpcapi"
	"textgend/pkg/types"
)

// fakeLlamaServer emulates a llama.cpp server: /tokenize counts one token
// per word and /v1/completions streams one SSE chunk per token, max_tokens
// tokens in total.
func fakeLlamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Content   string `json:"content"`
			Prompt    string `json:"prompt"`
			MaxTokens int    `json:"max_tokens"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if status != http.StatusOK {
			http.Error(w, "model crashed", status)
			return
		}
		if r.URL.Path == "/tokenize" {
			_ = json.NewEncoder(w).Encode(map[string][]int{"tokens": make([]int, len(strings.Fields(req.Content)))})
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		f, _ := w.(http.Flusher)
		for i := 0; i < req.MaxTokens; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"text\":\" w%d\"}]}\n\n", i)
			if f != nil {
				f.Flush()
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

// createTempModelsDir creates a temporary directory populated with empty files.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", n, err)
		}
	}
	return dir
}

type adminSvc struct {
	gen       *generator.Generator
	modelsDir string
}

func (a adminSvc) Status() types.StatusResponse { return a.gen.Status() }
func (a adminSvc) Ready() bool                  { return a.gen.Ready() }
func (a adminSvc) ListModels() []types.Model {
	m, _ := registry.LoadDir(a.modelsDir)
	return m
}

type stack struct {
	gen    *generator.Generator
	client *rpcapi.Client
	admin  *httptest.Server
}

// newStack wires engine, generator, gRPC server (in memory) and the admin
// HTTP server the way the daemon does.
func newStack(t *testing.T, backendURL, modelsDir string) *stack {
	t.Helper()
	eng, err := engine.New(engine.Config{Kind: engine.KindLlamaServer, ServerURL: backendURL, RequestTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	gen, err := generator.New(generator.Config{Engine: eng, EngineKind: engine.KindLlamaServer, Workers: 4})
	if err != nil {
		t.Fatalf("generator: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := rpcapi.NewServer(gen)
	go func() { _ = srv.Serve(lis) }()
	client, err := rpcapi.NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	admin := httptest.NewServer(httpapi.NewMux(adminSvc{gen: gen, modelsDir: modelsDir}))

	t.Cleanup(func() {
		_ = client.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		admin.Close()
		_ = gen.Close(time.Second)
	})
	return &stack{gen: gen, client: client, admin: admin}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
