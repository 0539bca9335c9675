package main

import "github.com/cflux/backoffice/cmd"

func main() {
	cmd.Execute()
}
