package main

import "github.com/forPelevin/clipmix/internal/cli"

func main() {
	cli.Main()
}
