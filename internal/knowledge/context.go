package knowledge

import (
	"fmt"
	"strings"
)

// ContextBlock renders retrieved chunks into a single grounding block for the
// completion prompt. Each chunk is labeled with its source and chunk index so
// the model can cite it; chunks are separated by a --- line. The block is
// bounded only by the provider's input limits.
func ContextBlock(chunks []Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("SOURCE %d (%s#%d):\n%s", i+1, c.Source, c.ChunkIndex, c.Content)
	}
	return strings.Join(parts, "\n---\n")
}
