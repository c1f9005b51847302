// Package main is the entry point for the glucoplan command
package main

import "github.com/mrcode/glucoplan/internal/cmd"

func main() {
	cmd.Execute()
}
