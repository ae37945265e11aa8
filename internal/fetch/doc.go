package fetch

// Package fetch wraps net/http with the request headers and timeouts the
// stream origins expect, behind a small Fetcher interface.
