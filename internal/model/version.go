package model

// Version constants for the canonical encoding.
const (
	// CodecVersion is the canonical encoding version. It is folded into the
	// content-hash domain so a layout change can never alias old hashes.
	CodecVersion = "1"

	// MaxFunctionNameLength bounds the target function name of a message.
	MaxFunctionNameLength = 255
)
