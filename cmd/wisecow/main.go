package main

import (
	"os"

	"github.com/wisecow/wisecow/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
