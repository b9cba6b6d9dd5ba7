package main

import "github.com/jwulff/sentiscribe/internal/cli"

func main() {
	cli.Execute()
}
