package config

import (
	"flag"
	"os"
	"time"

	"github.com/mrememisaac/communityauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-s string   token signing secret (HS256)
//	-i string   token issuer claim
//	-a string   token audience claim
//	-t int      token validity, minutes
//	-demo       use an in-memory user directory (no Postgres)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. The duration
// flag is accepted as an integer in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-s", "-i", "-a", "-t", "-demo"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.TokenIssuer, "i", config.TokenIssuer, "token issuer claim")
	fs.StringVar(&config.TokenAudience, "a", config.TokenAudience, "token audience claim")
	fs.BoolVar(&config.DemoMode, "demo", config.DemoMode, "use an in-memory user directory")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}
