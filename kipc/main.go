// Package main is the kipc command. It runs message-passing workloads on an
// in-process kernel and inspects their traces.
package main

import "github.com/sarchlab/kipc/kipc/cmd"

func main() {
	cmd.Execute()
}
