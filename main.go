package main

import "github.com/Kauel-Chile/MERN-Boilerplate/cmd"

func main() {
	cmd.Execute()
}
