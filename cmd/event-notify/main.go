package main

import "github.com/YOSHITATSU-1998/event-notify/internal/cli"

func main() {
	cli.Execute()
}
