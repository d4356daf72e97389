package main

import "github.com/frahmantamala/servicebook/cmd"

func main() {
	cmd.Execute()
}
