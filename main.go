package main

import "github.com/redactyl/baseliner/cmd/baseliner"

func main() { baseliner.Execute() }
