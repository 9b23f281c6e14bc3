// core/trace_loader.go
package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/signalsfoundry/colortrace/model"
)

// DecodeTrace parses a solver response in its JSON wire shape. Decoding
// only checks syntax; call Ingest to validate the result against a graph.
func DecodeTrace(r io.Reader) (*model.RawTrace, error) {
	var raw model.RawTrace
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode trace: %v", ErrTraceValidation, err)
	}
	return &raw, nil
}

// LoadTrace decodes and ingests a trace in one call.
func LoadTrace(r io.Reader, graph *RegionGraph) (*Trace, error) {
	raw, err := DecodeTrace(r)
	if err != nil {
		return nil, err
	}
	return Ingest(raw, graph)
}
