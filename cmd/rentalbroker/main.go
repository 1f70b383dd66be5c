package main

import "github.com/example/rental-broker/cmd"

func main() {
	cmd.Execute()
}
