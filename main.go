package main

import "linkhive/cmd"

func main() {
	cmd.Execute()
}
