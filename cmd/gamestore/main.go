package main

import "github.com/mkarchuk/gamestore/cmd/gamestore/commands"

func main() {
	commands.Execute()
}
