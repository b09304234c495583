package main

import "github.com/saulfrancisco-ruizacevedo/go-neoseed/cmd/neoseed/commands"

func main() {
	commands.Execute()
}
