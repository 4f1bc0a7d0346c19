package main

import (
	"flyingsocks-core/internal/client/cmd"
)

func main() {
	cmd.Execute()
}
