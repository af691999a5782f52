package main

import (
	"os"

	"quiz-calibration/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
