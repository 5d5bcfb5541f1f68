// Package stdlib embeds the `base`/`legacy` module sources that
// `require "base"` / `require "legacy"` resolve to without touching disk.
package stdlib

import _ "embed"

//go:embed base.ckl
var Base string

//go:embed legacy.ckl
var Legacy string
