package main

import "github.com/danmuck/sensorwire/cmd/sensorctl/cmd"

func main() {
	cmd.Execute()
}
