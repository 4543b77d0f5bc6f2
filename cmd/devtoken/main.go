// Command devtoken prints an access token accepted by the server, for local
// testing against a running instance.  Tokens are normally issued by the
// identity provider in front of this service.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/room-booking/internal/identity"
	"github.com/iliyamo/room-booking/internal/utils"
)

func main() {
	_ = godotenv.Load()

	user := flag.Uint64("user", 1, "user id placed in the sub claim")
	role := flag.String("role", identity.RoleGuest, "role claim (GUEST or ADMIN)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	tok, err := utils.NewAccessToken(secret, *user, strings.ToUpper(*role), *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok.Token)
}
