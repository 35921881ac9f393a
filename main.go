package main

import "github.com/agentic-research/trellis/cmd"

func main() {
	cmd.Execute()
}
