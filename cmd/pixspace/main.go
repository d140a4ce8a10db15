package main

import "github.com/MeKo-Tech/pixspace/cmd/pixspace/cmd"

func main() {
	cmd.Execute()
}
