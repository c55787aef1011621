package utils

const (
	// same meaning as pgrep exit codes
	ExitCodeSuccess = iota
	ExitCodeNoMatch
	ExitCodeUsage
	ExitCodeError

	// custom exit codes
	ExitCodeAborted = 4
)
