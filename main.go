package main

import (
	"os"

	"github.com/underdogdevs/mentormatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
