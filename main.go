package main

import "github.com/upliftlab/affirmd/cmd"

func main() {
	cmd.Execute()
}
