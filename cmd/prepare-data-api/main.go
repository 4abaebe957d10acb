package main

import "go-data-prep/cmd/prepare-data/commands"

// @title go-data-prep API
// @version 1.0
// @description Convert JSON lines into fully quoted CSV and inspect run history.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	opts := commands.NewGlobalOptions()
	cmd := commands.NewServeCmd(opts)
	cmd.Use = "prepare-data-api"
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	commands.AddGlobalFlags(cmd, opts)
	commands.Execute(cmd)
}
