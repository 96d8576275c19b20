// Command mapctl bootstraps map views and inspects projections and tiles
// from the command line, without a running API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
