package config

import (
	"flag"
	"os"
	"strings"

	"github.com/eventcall-app/eventcall/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-o string   repository owner
//	-r string   repository name
//	-p string   proxy base URL
//	-b string   backend: auto, direct, proxy, or local
//	-t string   comma-separated GitHub tokens
//	-demo       accept any credentials (development)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-o", "-r", "-p", "-b", "-t", "-demo"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Owner, "o", cfg.Owner, "repository owner")
	fs.StringVar(&cfg.Repo, "r", cfg.Repo, "repository name")
	fs.StringVar(&cfg.ProxyURL, "p", cfg.ProxyURL, "proxy base URL")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "backend: auto, direct, proxy, or local")
	tokens := fs.String("t", "", "comma-separated GitHub tokens")
	fs.BoolVar(&cfg.Demo, "demo", cfg.Demo, "accept any credentials (development)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *tokens != "" {
		cfg.Tokens = nil
		for _, t := range strings.Split(*tokens, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.Tokens = append(cfg.Tokens, t)
			}
		}
	}
}
