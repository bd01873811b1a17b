package main

import "github.com/frahmantamala/club-management/cmd"

func main() {
	cmd.Execute()
}
