package main

import (
	"os"

	"github.com/fmuoria/cv-auditor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
