// contrastlens - WCAG contrast checker for screenshots
//
// contrastlens divides a rendered page into grid blocks, finds the two
// dominant colours in each, and reports blocks whose contrast fails WCAG AA.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"github.com/jmylchreest/contrastlens/internal/cli"
)

func main() {
	cli.Execute()
}
