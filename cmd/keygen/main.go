package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iliyamo/auth-service/internal/tools/keygen"
)

func main() {
	cfg, err := keygen.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		exitf("parse flags: %v", err)
	}
	if err := keygen.Run(cfg, os.Stdout, nil); err != nil {
		exitf("generate key pair: %v", err)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
