package main

import "github.com/BradenHooton/formgate/cmd/formgatectl/commands"

func main() {
	commands.Execute()
}
