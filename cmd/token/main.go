// Command token prints a signed bearer token for an account, using the same
// secret and lifetime as the server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mmynk/cakepot/internal/auth"
	"github.com/mmynk/cakepot/internal/config"
	"github.com/mmynk/cakepot/internal/identity"
)

func main() {
	configPath := flag.String("config", os.Getenv("CAKEPOT_CONFIG"), "path to YAML config file")
	account := flag.String("account", "", "account to issue the token for")
	flag.Parse()

	if *account == "" {
		fmt.Fprintln(os.Stderr, "usage: token -account <account> [-config path]")
		os.Exit(2)
	}

	normalized, err := identity.Normalize(*account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid account %q: %v\n", *account, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration).Generate(normalized)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
