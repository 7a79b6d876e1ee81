// Command linters runs the repository's custom analyzers. It is a separate
// module, so build it from this directory and point it at the main module:
//
//	cd tools/linters
//	go build -o ../../bin/linters .
//	cd ../.. && ./bin/linters ./...
package main

import "golang.org/x/tools/go/analysis/singlechecker"

func main() {
	singlechecker.Main(Analyzer)
}
