package main

import (
	"os"

	"github.com/Fatal777/invoisaic/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
