package main

import (
	"os"

	"github.com/tagwire/tagwire/internal/cli"
)

func main() {
	command := cli.NewTagwireCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
