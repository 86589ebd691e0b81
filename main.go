package main

import "autoembed/cmd"

func main() {
	cmd.Execute()
}
