package main

import "github.com/mydehq/covermux/internal/cli"

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
