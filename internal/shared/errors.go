package shared

import "fmt"

var (
	// Configuration errors (fatal at startup)
	ErrMissingConfig   = fmt.Errorf("configuration not found")
	ErrInvalidConfig   = fmt.Errorf("invalid configuration")
	ErrInvalidMode     = fmt.Errorf("invalid classification mode")
	ErrInvalidTemplate = fmt.Errorf("invalid playlist name template")

	// Authentication errors
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")

	// Runtime errors (logged and counted, never fatal)
	ErrUpstream       = fmt.Errorf("playlist service request failed")
	ErrClassification = fmt.Errorf("genre classification failed")
)
