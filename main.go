package main

import "github.com/lexfind/contact-crawler/cmd"

func main() {
	cmd.Execute()
}
