package main

import "github.com/vietddude/cascade/internal/cli"

func main() {
	cli.Execute()
}
