package mutation

// MaxChunkSize bounds how many identifiers a single `IN (...)` clause
// carries. Postgres has no hard parameter-count wall at 1000 the way
// SQLite does at 999, but the builders keep the same chunk size the
// SQLite-flavored original used, rather than invent a new
// Postgres-specific threshold with no grounding (see DESIGN.md).
const MaxChunkSize = 1000

// ChunkIdentifiers splits ids into slices of at most MaxChunkSize.
func ChunkIdentifiers(ids []Identifier) [][]Identifier {
	if len(ids) == 0 {
		return nil
	}
	var chunks [][]Identifier
	for i := 0; i < len(ids); i += MaxChunkSize {
		end := i + MaxChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}
