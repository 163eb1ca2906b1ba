package main

import (
	"pulsegram/cmd"
)

func main() {
	cmd.Execute()
}
