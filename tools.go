//go:build tools

package tools

import (
	_ "github.com/boumenot/gocover-cobertura"
)
