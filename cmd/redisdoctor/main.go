package main

import (
	"os"

	"github.com/illenko/redisdoctor/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
