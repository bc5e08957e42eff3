package main

import "comment-translator/internal/cli"

func main() {
	cli.Execute()
}
