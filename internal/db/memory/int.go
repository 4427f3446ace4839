package memory

import (
	"fmt"
	"strconv"
)

func parseInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value is not an integer: %w", err)
	}
	return n, nil
}

func formatInt(n int64) []byte {
	return strconv.AppendInt(nil, n, 10)
}
