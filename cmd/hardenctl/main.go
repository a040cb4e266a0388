package main

import "github.com/hardenctl/hardenctl/internal/cli"

func main() {
	cli.Execute()
}
