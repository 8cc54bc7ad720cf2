package main

import "github.com/mcoot/tictacgo/internal/cli"

func main() {
	cli.Execute()
}
