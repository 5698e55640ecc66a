package main

import "thoreinstein.com/specforge/cmd"

func main() {
	cmd.Execute()
}
