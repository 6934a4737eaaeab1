// Command devtoken mints access tokens for local testing.  Tokens are
// signed with JWT_SECRET from the environment or .env.
//
//	devtoken -patron 42
//	devtoken -venue 3 -ttl 12h
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/guestlist/internal/middleware"
	"github.com/iliyamo/guestlist/internal/utils"
)

func main() {
	patron := flag.Uint64("patron", 0, "patron id (PATRON role)")
	venue := flag.Uint64("venue", 0, "venue id (VENUE role)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("devtoken: read .env: %v", err)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("devtoken: JWT_SECRET is not set")
	}

	var id utils.Identity
	switch {
	case *patron != 0 && *venue != 0:
		log.Fatal("devtoken: pass either -patron or -venue")
	case *patron != 0:
		id = utils.Identity{Role: middleware.RolePatron, PatronID: *patron}
	case *venue != 0:
		id = utils.Identity{Role: middleware.RoleVenue, VenueID: *venue}
	default:
		flag.Usage()
		os.Exit(2)
	}

	tok, err := utils.NewAccessToken(secret, id, *ttl)
	if err != nil {
		log.Fatalf("devtoken: %v", err)
	}
	fmt.Println(tok.Token)
}
