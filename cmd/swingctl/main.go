// Command swingctl analyses swing videos and keypoint files from the command
// line and drives load against a running swing service.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
