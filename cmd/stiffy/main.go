package main

import "github.com/i474232898/stiffy-wanderers/cmd/stiffy/root"

func main() {
	root.Execute()
}
