package main

import "github.com/lfti/trustindex/pkg/cli"

func main() {
	cli.Execute()
}
