// opstoken mints bearer tokens for the ops API and encrypts secrets for
// at-rest storage (e.g. META_ACCESS_TOKEN_ENCRYPTED), using the same
// SECRET_KEY the server validates and decrypts with.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	config "github.com/markaz-center/markazbot/configs"
	"github.com/markaz-center/markazbot/pkg/utils"
)

func main() {
	adminID := flag.String("admin", "", "admin identity embedded in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	encryptValue := flag.String("encrypt", "", "encrypt the given value instead of minting a token")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fatalf("invalid configuration: %v", err)
	}
	if cfg.SecretKey == "" {
		fatalf("SECRET_KEY is not set")
	}

	if *encryptValue != "" {
		out, err := utils.Encrypt([]byte(*encryptValue), []byte(cfg.SecretKey))
		if err != nil {
			fatalf("encrypt: %v", err)
		}
		fmt.Println(out)
		return
	}

	if *adminID == "" {
		flag.Usage()
		os.Exit(2)
	}

	token, err := utils.GenerateToken(cfg.SecretKey, *adminID, *ttl)
	if err != nil {
		fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
