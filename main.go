package main

import "github.com/lifelinehq/lifeline/cmd"

func main() {
	cmd.Execute()
}
