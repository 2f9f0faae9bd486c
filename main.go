package main

import "github.com/juanibiapina/ptree/cmd"

func main() {
	cmd.Execute()
}
