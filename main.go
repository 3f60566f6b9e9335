package main

import "github.com/weldlang/weld/cmd"

var version = "v0.3.1"

func main() {
	cmd.Execute(version)
}
