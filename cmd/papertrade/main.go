package main

import "github.com/atmx/paper-trader/internal/cli"

func main() {
	cli.Execute()
}
