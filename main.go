package main

import "archive-analyzer/cmd"

func main() {
	cmd.Execute()
}
