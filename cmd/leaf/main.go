// Command leaf compiles single-file UI components into static artifacts.
package main

import (
	"os"

	"github.com/leapstack-labs/leaf/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
