package importer

import (
	"context"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/factory"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
)

// Analyze parses data and proposes a column mapping without keeping any
// session state. The snapshot is that of a session in Mapping.
func Analyze(ctx context.Context, name string, data []byte, opts factory.Options, mappings MappingStore, logger logging.Logger) (Snapshot, error) {
	s := NewSession(Deps{Mappings: mappings}, logger)
	if err := s.Load(ctx, name, data, opts); err != nil {
		return Snapshot{}, err
	}
	if err := s.OpenMapping(ctx); err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}
