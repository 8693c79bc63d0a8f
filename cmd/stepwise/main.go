package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps the outcome to an exit status.
// A panic anywhere below is reported instead of dumping a stack trace.
func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			code = 1
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
