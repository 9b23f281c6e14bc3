package model

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Algorithm names a solver strategy understood by the solve endpoint.
type Algorithm string

const (
	AlgorithmBacktracking    Algorithm = "backtracking"
	AlgorithmGreedy          Algorithm = "greedy"
	AlgorithmForwardChecking Algorithm = "forward_checking"
)

// Algorithms lists every supported strategy in presentation order.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmBacktracking, AlgorithmGreedy, AlgorithmForwardChecking}
}

// ParseAlgorithm accepts the wire name of an algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Algorithms() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unsupported algorithm %q", s)
}

// MaxColorsLimit bounds max_colors on solve requests.
const MaxColorsLimit = 64

// SolveRequest asks an external solver to color a region graph.
type SolveRequest struct {
	Regions     []string    `json:"regions" validate:"required,min=1,dive,required"`
	Adjacencies []Adjacency `json:"adjacencies" validate:"dive,dive,required"`
	// Colors optionally names the labels to use. When empty the solver
	// generates color0..color{MaxColors-1}.
	Colors    []string `json:"colors" validate:"omitempty,dive,required"`
	MaxColors int      `json:"max_colors" validate:"required,min=1,max=64"`
}

var solveValidate = validator.New()

// Validate checks the structural constraints of the request.
func (r SolveRequest) Validate() error {
	if err := solveValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid solve request: %w", err)
	}
	return nil
}

// Labels returns the color labels the solver should use.
func (r SolveRequest) Labels() []string {
	if len(r.Colors) > 0 {
		out := make([]string, len(r.Colors))
		copy(out, r.Colors)
		return out
	}
	out := make([]string, r.MaxColors)
	for i := range out {
		out[i] = fmt.Sprintf("color%d", i)
	}
	return out
}
