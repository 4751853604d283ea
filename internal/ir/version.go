package ir

// Version constants for the expression encoding and the tool.
const (
	// EncodingVersion is the canonical expression encoding version.
	// DomainTemplate carries it as its suffix.
	EncodingVersion = "1"

	// ToolVersion is the sexpsql release version.
	ToolVersion = "0.1.0"
)
