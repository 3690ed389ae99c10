// Package postprocessors turns normalised policy documents into chunks.
package postprocessors

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// Pipeline runs a creating processor followed by refining ones and
// rejects any chunk that leaves without provenance.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline running processors in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process chunks doc. The first processor receives nil chunks.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	if len(p.processors) == 0 {
		return nil, fmt.Errorf("%w: pipeline has no processors", domain.ErrConfiguration)
	}

	var chunks []domain.Chunk
	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	for i := range chunks {
		if err := checkProvenance(&chunks[i]); err != nil {
			return nil, fmt.Errorf("chunk %d of %s: %w", i, doc.ID, err)
		}
	}

	logger.Debug("%s: %d chunks from %s", doc.ID, len(chunks), strings.Join(p.Names(), " -> "))
	return chunks, nil
}

// checkProvenance requires the fields citations are built from.
func checkProvenance(c *domain.Chunk) error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: no chunk id", domain.ErrMissingProvenance)
	case c.DocID == "":
		return fmt.Errorf("%w: no doc_id on %s", domain.ErrMissingProvenance, c.ID)
	}
	return nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
