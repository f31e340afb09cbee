package main

import "github.com/codescope/codescope/internal/cli"

func main() {
	cli.Execute()
}
