package main

import (
	"fmt"
	"log"
	"os"

	"github.com/agentpayhq/agentpay/app/models"
	"github.com/agentpayhq/agentpay/app/repository"
	"github.com/agentpayhq/agentpay/internal/pkg/database"
	"github.com/agentpayhq/agentpay/internal/pkg/env"
)

// agentctl manages API credentials for agents. The shared secret is printed
// exactly once at creation time and never stored readable anywhere else.
func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	database.SetupDatabase()
	creds := repository.NewRepositories(database.GetDB()).AgentCredential

	switch os.Args[1] {
	case "create":
		if len(os.Args) < 3 {
			log.Fatal("Please provide the agent's wallet address")
		}
		cred, err := models.GenerateAgentCredential(os.Args[2])
		if err != nil {
			log.Fatalf("Failed to generate credential: %v", err)
		}
		if err := creds.Create(cred); err != nil {
			log.Fatalf("Failed to store credential: %v", err)
		}
		fmt.Printf("Key ID:  %s\n", cred.KeyID)
		fmt.Printf("Secret:  %s\n", cred.Secret)
		fmt.Println("Store the secret now, it will not be shown again.")

	case "activate":
		requireKeyID()
		if err := creds.UpdateStatus(os.Args[2], models.CREDENTIAL_STATUS_ACTIVE); err != nil {
			log.Fatalf("Failed to activate credential: %v", err)
		}
		log.Printf("Credential %s activated", os.Args[2])

	case "suspend":
		requireKeyID()
		if err := creds.UpdateStatus(os.Args[2], models.CREDENTIAL_STATUS_SUSPENDED); err != nil {
			log.Fatalf("Failed to suspend credential: %v", err)
		}
		log.Printf("Credential %s suspended", os.Args[2])

	case "deactivate":
		requireKeyID()
		if err := creds.UpdateStatus(os.Args[2], models.CREDENTIAL_STATUS_INACTIVE); err != nil {
			log.Fatalf("Failed to deactivate credential: %v", err)
		}
		log.Printf("Credential %s deactivated", os.Args[2])

	case "show":
		requireKeyID()
		cred, err := creds.GetByKeyID(os.Args[2])
		if err != nil {
			log.Fatalf("Failed to load credential: %v", err)
		}
		fmt.Printf("Key ID:    %s\n", cred.KeyID)
		fmt.Printf("Wallet:    %s\n", cred.WalletAddress)
		fmt.Printf("Status:    %s\n", cred.Status)
		if cred.LastUsedAt != nil {
			fmt.Printf("Last used: %s\n", cred.LastUsedAt.Format("2006-01-02 15:04:05"))
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func requireKeyID() {
	if len(os.Args) < 3 {
		log.Fatal("Please provide a key id")
	}
}

func printUsage() {
	fmt.Println("Usage: agentctl [command]")
	fmt.Println("Available commands:")
	fmt.Println("  create WALLET   - Issue a new credential for an agent wallet")
	fmt.Println("  activate KEY    - Re-activate a credential")
	fmt.Println("  suspend KEY     - Suspend a credential")
	fmt.Println("  deactivate KEY  - Deactivate a credential")
	fmt.Println("  show KEY        - Show credential details (never the secret)")
}
