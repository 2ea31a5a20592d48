package processing

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// ChunkText splits text into overlapping chunks of at most size bytes. A chunk
// ends after the last '.' inside the window when there is one, otherwise at the
// last space, otherwise at the window edge. Consecutive chunks share up to
// overlap bytes.
func ChunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			end = boundary(text, start, end)
		}

		if c := strings.TrimSpace(text[start:end]); c != "" {
			chunks = append(chunks, c)
		}
		if end == len(text) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = runeStart(text, next)
	}
	return chunks
}

// boundary picks where a window [start, end) should be cut.
func boundary(text string, start, end int) int {
	window := text[start:end]
	if i := strings.LastIndexByte(window, '.'); i > 0 {
		return start + i + 1
	}
	if i := strings.LastIndexByte(window, ' '); i > 0 {
		return start + i
	}
	if j := runeStart(text, end); j > start {
		return j
	}
	return end
}

// runeStart moves i back to the first byte of the rune containing it.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
