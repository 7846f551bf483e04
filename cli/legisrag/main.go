package main

import (
	"os"

	legisragcmder "github.com/legisrag/legisrag/cmd/legisrag"
)

func main() {
	cmd := legisragcmder.NewLegisragCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
