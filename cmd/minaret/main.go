package main

import "github.com/minaret-app/minaret/cmd/minaret/cmd"

func main() {
	cmd.Execute()
}
