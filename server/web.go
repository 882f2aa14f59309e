package server

import _ "embed"

// The board page is embedded so the binary is self-contained; audio files
// and the manifest stay on disk under the asset root.
//
//go:embed web/index.html
var indexPage []byte
