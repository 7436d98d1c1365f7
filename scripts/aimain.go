package main

import (
	"context"
	"fmt"
	"log"

	"github.com/promptvault/promptvault/client/hctx"
	"github.com/promptvault/promptvault/shared/ai"
)

// Sends a single prompt to the configured deployment and prints the normalized response, without touching the DB.
func main() {
	config, err := hctx.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := config.Validate(); err != nil {
		log.Fatal(err)
	}
	resp, err := ai.NewClient(config).Complete(context.Background(), "Explain in three numbered steps how to find all CSV files in the current directory and print their first column")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp)
}
