package main

import "github.com/sommelier/searchbench/cmd"

func main() {
	cmd.Execute()
}
