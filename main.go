package main

import "github.com/kamusis/cinerec/cmd"

func main() {
	cmd.Execute()
}
