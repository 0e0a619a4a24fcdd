package main

import "github.com/bookharvest/bookharvest/cmd"

func main() {
	cmd.Execute()
}
