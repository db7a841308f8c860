package main

import (
	"fmt"
	"os"

	"github.com/BearBump/FleetWatch/internal/integrations/webpush"
)

// Prints a fresh VAPID key pair in the env form fleet-server reads.
func main() {
	pub, priv, err := webpush.GenerateKeys()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("VAPID_PUBLIC_KEY=%s\n", pub)
	fmt.Printf("VAPID_PRIVATE_KEY=%s\n", priv)
}
