package main

import (
	"os"

	"github.com/smattr/clink/internal/clinkcli"
)

func main() {
	os.Exit(clinkcli.Run(os.Args[1:]))
}
