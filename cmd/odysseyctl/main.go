package main

import (
	"os"

	"github.com/odyssey-erp/odyssey-books/cmd/odysseyctl/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.DefaultDeps()).Execute(); err != nil {
		os.Exit(1)
	}
}
