package main

import "newsrec/internal/cli"

func main() {
	cli.Execute()
}
