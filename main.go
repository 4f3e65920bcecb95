package main

import "github.com/pders01/intent/cmd"

func main() {
	cmd.Execute()
}
