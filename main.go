// Command crossword builds crossword grids and serves them, including live
// two-player games, over HTTP and websockets.
package main

import "github.com/robalobadob/crossword/internal/cli"

func main() {
	cli.Execute()
}
