// Package store persists generated artifacts, one record per work item.
//
// Structured results are written as indented JSON named from the item index;
// text that cannot be read as the doc/issues schema is kept verbatim in a
// separate raw record instead. Persist never fails the caller: problems are
// logged and reported through its boolean result.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	vlog "github.com/futureCreator/docgen/internal/log"
	"github.com/futureCreator/docgen/internal/types"
)

// Sink writes named records to durable storage.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) error
	// Location describes where name ends up, for logs and run metadata.
	Location(name string) string
}

// Store maps a work-item index to a record in a Sink.
type Store struct {
	sink   Sink
	naming Naming
	logger *slog.Logger
}

// New builds a store. A nil naming defaults to IndexNaming.
func New(sink Sink, naming Naming, logger *slog.Logger) *Store {
	if naming == nil {
		naming = IndexNaming{}
	}
	return &Store{sink: sink, naming: naming, logger: vlog.OrDiscard(logger)}
}

// Persist writes the result for the zero-based index. It returns the
// location written and true for a structured record; false when the raw
// fallback was used or the write failed.
func (s *Store) Persist(ctx context.Context, index int, res types.Result) (string, bool) {
	if res.Kind == types.KindRaw {
		// a raw result may still hold a usable object
		if decoded := types.Decode(res.Raw); decoded.Kind == types.KindStructured {
			res = decoded
		}
	}
	base := s.naming.Base(index)

	if res.Kind != types.KindStructured || res.Document == nil {
		name := base + RawSuffix
		s.logger.Warn("content does not match doc/issues schema, writing raw text",
			"doc", index+1, "file", s.sink.Location(name))
		if err := s.sink.Write(ctx, name, []byte(res.Raw)); err != nil {
			s.logger.Error("could not save raw output", "doc", index+1, "file", s.sink.Location(name), "err", err)
			return "", false
		}
		return s.sink.Location(name), false
	}

	doc := res.Document
	data, err := encode(doc)
	if err != nil {
		s.logger.Error("could not encode document", "doc", index+1, "err", err)
		return "", false
	}
	if !doc.Complete() {
		s.logger.Warn("structured output is missing fields, saving as-is",
			"doc", index+1, "missing", strings.Join(doc.Missing(), ","))
	}
	for _, p := range doc.Problems() {
		s.logger.Warn("issue dependency problem", "doc", index+1, "problem", p)
	}

	name := base + JSONSuffix
	if err := s.sink.Write(ctx, name, data); err != nil {
		s.logger.Error("could not save output", "doc", index+1, "file", s.sink.Location(name), "err", err)
		return "", false
	}
	s.logger.Info("saved output", "doc", index+1, "file", s.sink.Location(name))
	return s.sink.Location(name), true
}

func encode(doc *types.DocumentIssues) ([]byte, error) {
	if !doc.Complete() && len(doc.Original()) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, doc.Original(), "", "  "); err != nil {
			return nil, fmt.Errorf("indenting original object: %w", err)
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
