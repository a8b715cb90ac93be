package main

import (
	"sfoweb-backend/cmd/sfoweb-cli/cmd"
)

func main() {
	cmd.Execute()
}
