package main

import "github.com/alphaduel/arena/cmd"

func main() {
	cmd.Execute()
}
