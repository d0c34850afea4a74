package rpc

// Remote indexing API paths.
const (
	accountsBatchPath = "/v1/accounts/batch"
	statusPath        = "/v1/status"
)
