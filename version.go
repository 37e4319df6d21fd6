package rewind

import _ "embed"

// Version is the release of the rewind module, read from the VERSION file.
//
//go:embed VERSION
var Version string
