package main

import (
	"strconv"
	"strings"
)

// truncate shortens s to maxLen runes, adding "..." if truncated.
// A negative maxLen is treated as zero.
func truncate(s string, maxLen int) string {
	maxLen = max(maxLen, 0)
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// oneLine collapses newlines so a chunk prints on a single row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
