// Command server runs the blog HTTP API.
package main

import (
	// zone names in post timezone hints must resolve on hosts without zoneinfo
	_ "time/tzdata"

	"github.com/philcifone/blog/internal/server"
)

func main() {
	server.Main()
}
