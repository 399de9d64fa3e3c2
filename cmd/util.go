package cmd

import (
	"fmt"
	"strconv"
)

func parseTrackArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid track index %q: %w", s, err)
	}
	return n, nil
}
