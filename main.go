package main

import "github.com/jamtransport/jamtransport/cmd"

func main() {
	cmd.Execute()
}
