package main

import "example.com/hospital/services/scheduling/cmd"

func main() {
	cmd.Execute()
}
