package main

import "github.com/Sena-ops/configaudit/cmd"

func main() {
	cmd.Execute()
}
