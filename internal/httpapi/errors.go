package httpapi

import "errors"

var (
	errEmptyQuery = errors.New("query must not be empty")
	errNoResult   = errors.New("no research result for this logId")
)
