// file: main.go
// version: 2.0.1
// guid: 1d4e7a90-6c3b-4f28-9e51-b2a7c8d30f16

package main

import (
	"fmt"
	"os"

	"github.com/jdfalk/voter-search/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
