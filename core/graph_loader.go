// core/graph_loader.go
package core

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"github.com/signalsfoundry/colortrace/model"
	"gopkg.in/yaml.v3"
)

//go:embed maps/four_color.yaml
var defaultMapYAML []byte

// internal YAML shapes – unexported so the file format can evolve
// independently of model types.
type mapFileYAML struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Regions     []regionYAML `yaml:"regions"`
	Adjacencies [][]string   `yaml:"adjacencies"`
}

type regionYAML struct {
	ID     string       `yaml:"id"`
	Shape  string       `yaml:"shape"`
	Anchor *model.Point `yaml:"anchor"`
}

// LoadRegionGraph reads a YAML map definition from r and returns the
// validated graph. Structural problems in the document and graph
// invariant violations are both reported as ErrGraph.
func LoadRegionGraph(r io.Reader) (*RegionGraph, error) {
	var payload mapFileYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode map: %v", ErrGraph, err)
	}

	regions := make([]model.Region, 0, len(payload.Regions))
	for _, r := range payload.Regions {
		region := model.Region{ID: r.ID, Shape: r.Shape}
		if r.Anchor != nil {
			region.Anchor = *r.Anchor
		}
		regions = append(regions, region)
	}

	adjacencies := make([]model.Adjacency, 0, len(payload.Adjacencies))
	for i, pair := range payload.Adjacencies {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: adjacency %d has %d ids, want 2", ErrGraph, i, len(pair))
		}
		adjacencies = append(adjacencies, model.Adjacency{pair[0], pair[1]})
	}

	g, err := NewRegionGraph(regions, adjacencies)
	if err != nil {
		return nil, err
	}
	return g.WithName(payload.Name), nil
}

// DefaultMap returns the built-in six-region map.
func DefaultMap() *RegionGraph {
	g, err := LoadRegionGraph(bytes.NewReader(defaultMapYAML))
	if err != nil {
		// The embedded map is part of the binary; failing here is a build defect.
		panic(fmt.Sprintf("embedded map is invalid: %v", err))
	}
	return g
}
