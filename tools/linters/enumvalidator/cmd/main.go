package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"funnelhq.app/portal/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}
