package main

import (
	"log"

	"DPDB/bootstrap"
)

func main() {
	log.Println("Starting DPDB node...")
	if _, err := bootstrap.Run(); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
}
