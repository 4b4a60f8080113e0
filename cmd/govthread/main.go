package main

import "github.com/brnhx/govthread/cmd/govthread/cmd"

func main() {
	cmd.Execute()
}
