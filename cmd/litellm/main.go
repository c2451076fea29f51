package main

import "github.com/user/litellm/cmd"

func main() {
	cmd.Execute()
}
