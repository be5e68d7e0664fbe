package clix

import (
	"github.com/spf13/pflag"
)

// PaginationParams carries the shared --limit/--offset pair.
type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination reads --limit and --offset, clamping nonsense values
// to the defaults instead of failing.
func ParsePagination(flags *pflag.FlagSet) (PaginationParams, error) {
	limit, _ := flags.GetInt("limit")
	offset, _ := flags.GetInt("offset")
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return PaginationParams{Limit: limit, Offset: offset}, nil
}

// ParseLimit reads a bare --limit for commands without offset paging.
func ParseLimit(flags *pflag.FlagSet, fallback int) int {
	limit, _ := flags.GetInt("limit")
	if limit <= 0 {
		return fallback
	}
	return limit
}
