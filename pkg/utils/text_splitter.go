package utils

import "strings"

// Separator preference, coarsest first. The empty string means hard
// character slicing and is the terminal fallback.
var splitSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// SplitText splits a long string into chunks of at most 'chunkSize'
// characters, carrying roughly 'overlap' characters between neighbouring
// chunks to preserve context at boundaries.
// It prefers the coarsest separator that actually occurs in the text
// (paragraph, line, sentence, space) so words are not cut in half unless
// nothing coarser fits.
func SplitText(text string, chunkSize int, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 1200
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len([]rune(trimmed)) <= chunkSize {
		return []string{trimmed}
	}

	parts := splitBySeparators(trimmed, splitSeparators, chunkSize)
	return mergeParts(parts, chunkSize, overlap)
}

// splitBySeparators breaks text into pieces no longer than chunkSize, each
// ending on the coarsest separator that occurs in it. Oversized pieces are
// re-split with the finer separators that remain.
func splitBySeparators(text string, separators []string, chunkSize int) []string {
	sep := ""
	rest := separators
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return sliceRunes(text, chunkSize)
	}

	var parts []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}
		if len([]rune(piece)) > chunkSize {
			parts = append(parts, splitBySeparators(piece, rest, chunkSize)...)
		} else {
			parts = append(parts, piece)
		}
	}
	return parts
}

func sliceRunes(text string, chunkSize int) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// mergeParts greedily packs separator-aligned pieces into chunks, seeding
// each new chunk with the tail of the previous one for overlap.
func mergeParts(parts []string, chunkSize int, overlap int) []string {
	var chunks []string
	var current []rune
	fresh := false // whether current holds anything beyond the overlap seed

	flush := func() {
		chunk := strings.TrimSpace(string(current))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if overlap > 0 && len(current) > overlap {
			tail := make([]rune, overlap)
			copy(tail, current[len(current)-overlap:])
			current = tail
		} else {
			current = nil
		}
		fresh = false
	}

	for _, part := range parts {
		runes := []rune(part)
		if len(current)+len(runes) > chunkSize {
			if fresh {
				flush()
			}
			// Shrink the overlap seed when the next part alone would
			// still overflow the chunk.
			for len(current) > 0 && len(current)+len(runes) > chunkSize {
				current = current[1:]
			}
		}
		current = append(current, runes...)
		fresh = true
	}
	if fresh {
		chunk := strings.TrimSpace(string(current))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
