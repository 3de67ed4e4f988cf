// Package main provides a CLI tool for minting and inspecting test tokens.
// These tokens are signed with a local development secret and will NOT be
// accepted by a production deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	id "signet/pkg/domain"
	"signet/pkg/secrets"

	"signet/internal/auth/models"
	"signet/internal/auth/token"
)

const (
	// Matches the JWT_SECRET suggested in .env.example for local setups.
	devSigningSecret = "dev-signing-secret-change-me-locally"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

type pairOutput struct {
	AccessToken      string            `json:"access_token"`
	RefreshToken     string            `json:"refresh_token"`
	Type             string            `json:"type"`
	UserID           string            `json:"user_id"`
	AccessExpiresAt  time.Time         `json:"access_expires_at"`
	RefreshExpiresAt time.Time         `json:"refresh_expires_at"`
	Usage            map[string]string `json:"usage"`
}

type verifyOutput struct {
	Valid     bool      `json:"valid"`
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type secretOutput struct {
	Secret string            `json:"secret"`
	Bytes  int               `json:"bytes"`
	Usage  map[string]string `json:"usage"`
}

func main() {
	pairCmd := flag.NewFlagSet("pair", flag.ExitOnError)
	verifyCmd := flag.NewFlagSet("verify", flag.ExitOnError)
	secretCmd := flag.NewFlagSet("secret", flag.ExitOnError)

	pairUserID := pairCmd.String("user-id", "", "User ID (UUID). Generated if empty.")
	pairSecret := pairCmd.String("secret", "", "Signing secret. Falls back to JWT_SECRET, then the dev secret.")
	pairAccessTTL := pairCmd.Duration("access-ttl", defaultAccessTTL, "Access token time-to-live")
	pairRefreshTTL := pairCmd.Duration("refresh-ttl", defaultRefreshTTL, "Refresh token time-to-live")
	pairJSON := pairCmd.Bool("json", false, "Output as JSON")

	verifyToken := verifyCmd.String("token", "", "Token string to verify (required)")
	verifyKind := verifyCmd.String("kind", "access", "Expected token kind: access or refresh")
	verifySecret := verifyCmd.String("secret", "", "Signing secret. Falls back to JWT_SECRET, then the dev secret.")
	verifyJSON := verifyCmd.Bool("json", false, "Output as JSON")

	secretBytes := secretCmd.Int("bytes", secrets.DefaultBytes, "Number of random bytes in the secret")
	secretJSON := secretCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "pair":
		pairCmd.Parse(os.Args[2:])
		generatePair(*pairUserID, *pairSecret, *pairAccessTTL, *pairRefreshTTL, *pairJSON)
	case "verify":
		verifyCmd.Parse(os.Args[2:])
		verify(*verifyToken, *verifyKind, *verifySecret, *verifyJSON)
	case "secret":
		secretCmd.Parse(os.Args[2:])
		generateSecret(*secretBytes, *secretJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Mint and inspect test tokens

WARNING: Tokens minted with the dev secret will NOT be accepted by a
         production deployment. Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  pair      Mint an access/refresh token pair
  verify    Verify a token and print its claims
  secret    Generate a random signing secret

Examples:
  # Mint a pair for a fresh user id
  tokengen pair

  # Mint a pair for a specific user with a one-hour access token
  tokengen pair -user-id "550e8400-e29b-41d4-a716-446655440000" -access-ttl 1h

  # Check why a token is being rejected
  tokengen verify -token "eyJhbGci..." -kind refresh

  # Generate a JWT_SECRET for deployment
  tokengen secret

  # Output as JSON
  tokengen pair -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generatePair(userID, secret string, accessTTL, refreshTTL time.Duration, jsonOutput bool) {
	uid := parseOrGenerateUserID(userID)

	svc, err := token.NewService(signingSecret(secret), accessTTL, refreshTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building token service: %v\n", err)
		os.Exit(1)
	}

	pair, err := svc.IssuePair(uid, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error minting pair: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(pairOutput{
			AccessToken:      pair.Access,
			RefreshToken:     pair.Refresh,
			Type:             "token_pair",
			UserID:           uid.String(),
			AccessExpiresAt:  pair.AccessExpiresAt,
			RefreshExpiresAt: pair.RefreshExpiresAt,
			Usage: map[string]string{
				"header": "Authorization: Bearer <access_token>",
				"cookie": "access_token=<access_token>; refresh_token=<refresh_token>",
			},
		})
		return
	}

	fmt.Println("Token Pair")
	fmt.Println("==========")
	fmt.Printf("User ID:         %s\n", uid)
	fmt.Printf("Access expires:  %s (%s)\n", pair.AccessExpiresAt.Format(time.RFC3339), accessTTL)
	fmt.Printf("Refresh expires: %s (%s)\n", pair.RefreshExpiresAt.Format(time.RFC3339), refreshTTL)
	fmt.Println()
	fmt.Println("Access Token:")
	fmt.Println(pair.Access)
	fmt.Println()
	fmt.Println("Refresh Token:")
	fmt.Println(pair.Refresh)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <access token>\" http://localhost:8080/accounts/users")
}

func verify(tokenString, kind, secret string, jsonOutput bool) {
	if tokenString == "" {
		fmt.Fprintln(os.Stderr, "-token is required")
		os.Exit(1)
	}

	tokenKind := models.TokenKind(kind)
	if !tokenKind.IsValid() {
		fmt.Fprintf(os.Stderr, "Invalid -kind %q: want access or refresh\n", kind)
		os.Exit(1)
	}

	svc, err := token.NewService(signingSecret(secret), defaultAccessTTL, defaultRefreshTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building token service: %v\n", err)
		os.Exit(1)
	}

	claims, err := svc.Verify(tokenString, tokenKind, time.Now())
	if err != nil {
		if jsonOutput {
			printJSON(verifyOutput{Valid: false, Kind: kind, Error: err.Error()})
		} else {
			fmt.Printf("INVALID: %v\n", err)
		}
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(verifyOutput{
			Valid:     true,
			Kind:      claims.Kind.String(),
			UserID:    claims.Subject,
			ExpiresAt: claims.ExpiresAt.Time,
			IssuedAt:  claims.IssuedAt.Time,
		})
		return
	}

	fmt.Println("Token OK")
	fmt.Println("========")
	fmt.Printf("Kind:       %s\n", claims.Kind)
	fmt.Printf("User ID:    %s\n", claims.Subject)
	fmt.Printf("Issued at:  %s\n", claims.IssuedAt.Time.Format(time.RFC3339))
	fmt.Printf("Expires at: %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
}

func generateSecret(n int, jsonOutput bool) {
	secret, err := secrets.Generate(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating secret: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(secretOutput{
			Secret: secret,
			Bytes:  n,
			Usage:  map[string]string{"env": "JWT_SECRET=" + secret},
		})
		return
	}

	fmt.Println("Signing Secret")
	fmt.Println("==============")
	fmt.Printf("Bytes: %d\n", n)
	fmt.Println()
	fmt.Println(secret)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  export JWT_SECRET=" + secret)
}

// signingSecret resolves the secret the same way for every command: explicit
// flag, then the server's JWT_SECRET, then the dev fallback.
func signingSecret(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("JWT_SECRET"); env != "" {
		return env
	}
	return devSigningSecret
}

func parseOrGenerateUserID(input string) id.UserID {
	if input == "" {
		return id.NewUserID()
	}
	parsed, err := id.ParseUserID(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user-id UUID: %s\n", input)
		os.Exit(1)
	}
	return parsed
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
