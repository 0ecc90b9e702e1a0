// Command optoken prints an OPERATOR access token signed with JWT_SECRET,
// for calling the catalog mutation endpoints.
package main

import (
    "flag"
    "fmt"
    "log"
    "os"
    "time"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/config"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/utils"
)

func main() {
    subject := flag.String("sub", "operator", "token subject")
    ttl := flag.Duration("ttl", time.Hour, "token lifetime")
    flag.Parse()

    config.LoadDotEnv()
    secret := os.Getenv("JWT_SECRET")
    if secret == "" {
        log.Fatal("missing required env var: JWT_SECRET")
    }
    tok, err := utils.NewAccessToken(secret, *subject, utils.RoleOperator, *ttl)
    if err != nil {
        log.Fatalf("sign token: %v", err)
    }
    fmt.Println(tok.Token)
    fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
