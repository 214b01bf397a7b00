package main

import (
	"fmt"
	"os"

	"github.com/skymail/skymail/cmd/skymail/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
