// visitctl is the operator's tool for a VisitDesk database.
//
// Usage:
//
//	visitctl counts --date 2024-03-15
//	visitctl seed --count 20
//	visitctl checkout
package main

import (
	"fmt"
	"os"

	"github.com/dalemusser/visitdesk/cmd/visitctl/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
