package main

import "github.com/adlint/adlint/cmd"

func main() {
	cmd.Execute()
}
