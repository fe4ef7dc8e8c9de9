package main

import "github.com/example/celebrity-recognition/cmd"

func main() {
	cmd.Execute()
}
