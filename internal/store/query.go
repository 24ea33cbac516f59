package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/amishk599/coldreach/internal/model"
)

type storedVector struct {
	link      string
	embedding []float32
}

type scored struct {
	pos   int // position in insertion order, the tie-breaker
	score float64
}

// Query embeds each text and returns up to topK links per text, most similar
// first. An empty texts slice returns an empty result without embedding anything.
func (s *SQLiteStore) Query(ctx context.Context, texts []string, topK int) ([][]string, error) {
	if len(texts) == 0 {
		return [][]string{}, nil
	}

	stored, err := s.loadVectors(ctx)
	if err != nil {
		return nil, err
	}

	queryVecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query texts: %w", model.ErrStoreUnavailable, err)
	}
	if len(queryVecs) != len(texts) {
		return nil, fmt.Errorf("%w: embedding query texts: got %d vectors for %d texts", model.ErrStoreUnavailable, len(queryVecs), len(texts))
	}

	results := make([][]string, len(texts))
	for i, qv := range queryVecs {
		if err := checkDimensions(stored, len(qv)); err != nil {
			return nil, err
		}
		results[i] = nearest(stored, qv, topK)
	}
	return results, nil
}

func (s *SQLiteStore) loadVectors(ctx context.Context) ([]storedVector, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT link, embedding FROM portfolio_entries WHERE collection = ? ORDER BY seq", s.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: loading embeddings: %v", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []storedVector
	for rows.Next() {
		var (
			sv   storedVector
			blob []byte
		)
		if err := rows.Scan(&sv.link, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning embedding: %v", model.ErrStoreUnavailable, err)
		}
		sv.embedding = decodeVector(blob)
		out = append(out, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loading embeddings: %v", model.ErrStoreUnavailable, err)
	}
	return out, nil
}

// checkDimensions fails when the collection was embedded with a different
// vector width than the current embedder produces. Such a collection has to
// be rebuilt.
func checkDimensions(stored []storedVector, dims int) error {
	for _, sv := range stored {
		if len(sv.embedding) != dims {
			return fmt.Errorf("%w: collection vectors have %d dimensions, embedder produced %d",
				model.ErrStoreUnavailable, len(sv.embedding), dims)
		}
	}
	return nil
}

func nearest(stored []storedVector, query []float32, topK int) []string {
	if topK <= 0 || len(stored) == 0 {
		return []string{}
	}

	ranked := make([]scored, len(stored))
	for i, sv := range stored {
		ranked[i] = scored{pos: i, score: cosineSimilarity(query, sv.embedding)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	n := min(topK, len(ranked))
	links := make([]string, n)
	for i := 0; i < n; i++ {
		links[i] = stored[ranked[i].pos].link
	}
	return links
}

// cosineSimilarity returns 0 for mismatched or zero-length vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}
