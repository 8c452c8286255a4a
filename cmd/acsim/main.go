package main

import "ac_simulator/cmd/acsim/cmd"

func main() {
	cmd.Execute()
}
