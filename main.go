package main

import "github.com/telagraphic/sfx-board/cmd"

func main() {
	cmd.Execute()
}
