package main

import "github.com/kamal-hamza/assetctl/cmd"

func main() {
	cmd.Execute()
}
