package main

import (
	"os"

	"github.com/ariebrainware/dentplanner-api/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
