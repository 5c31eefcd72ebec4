package main

import "morphsplit/internal/cli"

func main() {
	cli.Execute()
}
