package main

import (
	"github.com/promptvault/promptvault/client/cmd"
)

func main() {
	cmd.Execute()
}
