// Package keygen writes the RSA key pair that signs access tokens and
// prints its public JWK for peer services.
package keygen

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/iliyamo/auth-service/internal/keys"
)

// Config holds configuration for key pair generation.
type Config struct {
	Dir  string
	Bits int
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Dir: "certs", Bits: 4096}
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "output directory for privateKey.pem and publicKey.pem")
	fs.IntVar(&cfg.Bits, "bits", cfg.Bits, "RSA modulus size in bits")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates the pair, writes both PEM files and prints the JWK to out.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Dir == "" {
		return errors.New("dir is required")
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	key, err := keys.Generate(cfg.Bits, reader)
	if err != nil {
		return err
	}
	privPath, pubPath, err := keys.WritePEMPair(cfg.Dir, key)
	if err != nil {
		return err
	}
	jwk, err := json.MarshalIndent(keys.PublicJWK(&key.PublicKey), "", "  ")
	if err != nil {
		return fmt.Errorf("encode jwk: %w", err)
	}
	_, err = fmt.Fprintf(out, "wrote %s\nwrote %s\n%s\n", privPath, pubPath, jwk)
	return err
}
