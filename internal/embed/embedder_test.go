package embed

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/coldreach/internal/model"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(0)
	a, _ := e.Embed(context.Background(), []string{"Python, Django, PostgreSQL"})
	b, _ := e.Embed(context.Background(), []string{"python django postgresql"})

	if len(a[0]) != DefaultHashDimensions {
		t.Fatalf("dims = %d, want %d", len(a[0]), DefaultHashDimensions)
	}
	if got := cosine(a[0], b[0]); math.Abs(got-1) > 1e-6 {
		t.Errorf("cosine of same tokens = %f, want 1", got)
	}
}

func TestHashEmbedder_RelatedScoresHigherThanUnrelated(t *testing.T) {
	e := NewHashEmbedder(512)
	vecs, _ := e.Embed(context.Background(), []string{
		"Python",
		"Python, Django",
		"Swift, iOS, Xcode",
	})

	related := cosine(vecs[0], vecs[1])
	unrelated := cosine(vecs[0], vecs[2])
	if related <= unrelated {
		t.Errorf("related = %f, unrelated = %f; want related > unrelated", related, unrelated)
	}
}

func TestHashEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	vecs, err := NewHashEmbedder(8).Embed(context.Background(), []string{"  , ;"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range vecs[0] {
		if v != 0 {
			t.Fatalf("expected zero vector, got %v", vecs[0])
		}
	}
}

func TestTokenize_KeepsPlusAndHash(t *testing.T) {
	got := tokenize("C++, C#, Go/Rust")
	want := []string{"c++", "c#", "go", "rust"}
	if len(got) != len(want) {
		t.Fatalf("tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOllamaEmbedder_Success(t *testing.T) {
	var gotReq ollamaEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %q, want /api/embed", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1, 0}, {0, 1}}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "", srv.Client())
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 || vecs[1][1] != 1 {
		t.Errorf("vecs = %v", vecs)
	}
	if gotReq.Model != defaultOllamaModel {
		t.Errorf("model = %q, want %q", gotReq.Model, defaultOllamaModel)
	}
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "m", srv.Client()).Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error when embedding count differs from input count")
	}
}

func TestOpenAIEmbedder_ReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"data":[{"embedding":[2],"index":1},{"embedding":[1],"index":0}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "key", "", srv.Client())
	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Errorf("vecs = %v, want [[1] [2]]", vecs)
	}
}

func TestOpenAIEmbedder_RateLimitedReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenAIEmbedder(srv.URL, "key", "m", srv.Client()).Embed(context.Background(), []string{"x"})
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 7 {
		t.Errorf("RetryAfter = %v, want 7s", httpErr.RetryAfter)
	}
}

func TestEmbedders_EmptyInputSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	}))
	defer srv.Close()

	if _, err := NewOllamaEmbedder(srv.URL, "", srv.Client()).Embed(context.Background(), nil); err != nil {
		t.Errorf("ollama: %v", err)
	}
	if _, err := NewOpenAIEmbedder(srv.URL, "", "", srv.Client()).Embed(context.Background(), nil); err != nil {
		t.Errorf("openai: %v", err)
	}
}
