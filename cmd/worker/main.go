package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker sweep-drafts")
	}

	switch os.Args[1] {
	case "sweep-drafts":
		RunSweep()
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
