package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Library export errors
	ErrInputParse = fmt.Errorf("failed to parse library export")

	// Store errors
	ErrCorruptStore = fmt.Errorf("corrupt store file")
	ErrOutputWrite  = fmt.Errorf("failed to write output file")

	// Lookup errors
	ErrLookupFailed = fmt.Errorf("lookup request failed")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
