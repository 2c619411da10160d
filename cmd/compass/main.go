package main

import "github.com/filipexyz/compass/internal/cli/cmd"

func main() {
	cmd.Execute()
}
