package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"docchat/internal/domain"
)

// DefaultLocalDimension is the vector size of the local provider.
const DefaultLocalDimension = 256

// Local is a deterministic offline embedding provider: a bag of hashed
// words projected into a fixed-size L2-normalized vector. Texts sharing
// words land close together, which is enough for running without network
// access and for tests. The task type is ignored.
type Local struct {
	dim int
}

// NewLocal creates a local provider with the given vector dimension.
func NewLocal(dimension int) *Local {
	if dimension <= 0 {
		dimension = DefaultLocalDimension
	}
	return &Local{dim: dimension}
}

// Embed returns one vector per text, in input order. It never fails.
func (l *Local) Embed(_ context.Context, texts []string, _ domain.TaskType) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = l.embed(t)
	}
	return vectors, nil
}

// Name returns the provider identifier.
func (l *Local) Name() string { return "local" }

func (l *Local) embed(text string) []float32 {
	vec := make([]float32, l.dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?\"'()[]")
		if tok == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(l.dim)]++
	}
	l2normalize(vec)
	return vec
}

// l2normalize scales v to unit length in place.
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
