package main

import (
	"os"

	"github.com/fortuna/accolade/cmd/accolade/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
