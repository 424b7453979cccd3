package main

import (
	"log"

	"github.com/keyvalue-dev/keyvalue/core/controlplane/gateway"
	"github.com/keyvalue-dev/keyvalue/core/infra/buildinfo"
	"github.com/keyvalue-dev/keyvalue/core/infra/config"
)

func main() {
	log.Println("keyvalue gateway starting...")
	buildinfo.Log("keyvalue-gateway")
	cfg := config.Load()
	if err := gateway.Run(cfg); err != nil {
		log.Fatalf("gateway error: %v", err)
	}
}
