// Package bxruntime embeds the tiny C runtime BX-compiled executables
// link against, so the `build` subcommand can produce a runnable
// native executable without requiring a sibling source tree on disk.
package bxruntime

import _ "embed"

//go:embed bx_runtime.c
var Source []byte
