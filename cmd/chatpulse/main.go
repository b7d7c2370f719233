package main

import "github.com/cognicore/chatpulse/internal/cli"

func main() {
	cli.Execute()
}
