package main

import (
	"text2phenotype.com/gst/cmd"
)

func main() {
	cmd.Execute()
}
