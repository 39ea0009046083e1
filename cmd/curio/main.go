// Package main provides the curio CLI.
package main

import "github.com/mesh-intelligence/curio/internal/cli"

func main() {
	cli.Execute()
}
