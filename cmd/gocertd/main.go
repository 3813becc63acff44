package main

import "github.com/enerledger/gocertd/internal/cli"

func main() {
	cli.Execute()
}
