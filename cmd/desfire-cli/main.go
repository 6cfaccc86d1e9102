// Command desfire-cli is a diagnostic and provisioning tool over the
// desfire core: select applications, authenticate, list applications
// and key settings, read/write file data and rotate keys from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/nfc-go/desfire/cmd/desfire-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
