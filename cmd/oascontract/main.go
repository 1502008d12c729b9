package main

import "github.com/moamenhredeen/oascontract/cmd"

func main() {
	cmd.Execute()
}
