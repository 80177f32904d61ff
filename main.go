package main

import (
	"os"

	"github.com/ekaya-inc/pcb-lookup/cmd"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	os.Exit(cmd.Execute(Version))
}
