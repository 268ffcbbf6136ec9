package main

import (
	"os"

	"github.com/wisecow/wisecow/pkg/daemon"
)

func main() {
	os.Exit(daemon.ExitCodeFor(daemon.Serve()))
}
