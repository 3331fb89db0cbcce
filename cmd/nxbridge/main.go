package main

import "github.com/urmzd/nxbridge/cmd/nxbridge/cmd"

func main() {
	cmd.Execute()
}
