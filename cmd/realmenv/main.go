// Command realmenv runs a lorisgate auth server in Docker and provisions
// its realms from a YAML file.
package main

import "os"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(execute(os.Args[1:]))
}
