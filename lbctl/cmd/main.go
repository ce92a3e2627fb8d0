package main

import "github.com/Cogwheel-Validator/liquidity-book/lbctl/cli"

func main() {
	cli.Execute()
}
