package main

import (
	"os"

	"github.com/gerunddev/mdirtree/internal/commands"
)

// version can be overridden with -ldflags "-X main.version=1.0.0"
var version = "0.1.0"

func main() {
	os.Exit(commands.Execute(version, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
