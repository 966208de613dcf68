// Command orato evaluates recorded speeches: it transcribes the audio,
// runs the analyzer suite, and prints a scored report.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "orato: %v\n", err)
		os.Exit(1)
	}
}
