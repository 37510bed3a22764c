package main

import "github.com/LeJamon/goXRPLmm/internal/cli"

func main() {
	cli.Execute()
}
