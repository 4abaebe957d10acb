package main

import "go-data-prep/cmd/prepare-data/commands"

func main() {
	commands.Execute(commands.NewRootCmd())
}
