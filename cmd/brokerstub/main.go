// brokerstub runs the in-memory auth broker for local development: real
// JWT sessions, the full provider admin contract, and canned metadata
// parsing. Point samlctl (or the web UI) at it with SAML_API_BASE.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/bondilirithika/dynamic-saml/internal/brokertest"
	"github.com/bondilirithika/dynamic-saml/pkg/debug"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	secret := flag.String("secret", "", "JWT signing secret (random when empty)")
	printToken := flag.Bool("print-token", false, "print an admin token on startup")
	flag.Parse()

	debug.Reinitialize()

	key := []byte(*secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate signing key: %v\n", err)
			os.Exit(1)
		}
	}

	broker := brokertest.NewServer(key)

	if *printToken {
		token, err := broker.MintToken(brokertest.DefaultUser, 24*time.Hour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to mint token: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Admin token (valid 24h):\n%s\n", token)
	}

	debug.Info("Broker stub listening on %s", *addr)
	if err := http.ListenAndServe(*addr, broker.Router()); err != nil {
		fmt.Fprintf(os.Stderr, "server stopped: %v\n", err)
		os.Exit(1)
	}
}
