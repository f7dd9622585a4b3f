// Command basket manages a persisted shopping cart from the command line.
package main

import "github.com/mesh-intelligence/basket/internal/cli"

func main() {
	cli.Execute()
}
