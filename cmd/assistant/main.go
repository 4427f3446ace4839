// Command assistant runs the VIEW Avocats chat assistant: the HTTP API and widget,
// plus a few operator commands for the knowledge base and transcripts.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
