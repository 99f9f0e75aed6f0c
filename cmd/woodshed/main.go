package main

import "github.com/tessro/woodshed/internal/cli"

func main() {
	cli.Execute()
}
