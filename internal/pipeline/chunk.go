package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/bm25"
)

// Chunking defaults.
const (
	DefaultChunkLines   = 40
	DefaultChunkOverlap = 5
)

// binarySniffLen bytes are checked for NUL to detect binary content.
const binarySniffLen = 8000

// Chunk splits content into overlapping line windows. Windows that contain
// only whitespace are dropped and binary content yields no chunks. IDs are
// "path:start-end" with 1-based inclusive lines.
func Chunk(path string, content []byte, lines, overlap int) []bm25.Document {
	if len(content) == 0 || isBinary(content) {
		return nil
	}
	if lines <= 0 {
		lines = DefaultChunkLines
	}
	step := lines - overlap
	if overlap < 0 || step < 1 {
		step = lines
	}

	all := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	if all[len(all)-1] == "" {
		all = all[:len(all)-1]
	}

	var docs []bm25.Document
	for start := 0; start < len(all); start += step {
		end := min(start+lines, len(all))
		text := strings.Join(all[start:end], "\n")
		if strings.TrimSpace(text) != "" {
			docs = append(docs, bm25.Document{
				ID:        fmt.Sprintf("%s:%d-%d", path, start+1, end),
				Text:      text,
				FilePath:  path,
				StartLine: start + 1,
				EndLine:   end,
			})
		}
		if end == len(all) {
			break
		}
	}
	return docs
}

func isBinary(content []byte) bool {
	if len(content) > binarySniffLen {
		content = content[:binarySniffLen]
	}
	return bytes.IndexByte(content, 0) >= 0
}
