package main

import (
	"flag"
	"fmt"

	"github.com/nullclaw/nullclaw/internal/providers"
)

// runAuth implements "nullclaw auth status" and "nullclaw auth check
// <provider>", reporting which credential source (if any) the daemon
// would resolve for a provider without making a network call. A full
// interactive OAuth authorize/callback flow is out of scope here: the
// daemon consumes whatever the provider's own CLI (claude, codex) or
// the Gemini OAuth credential file already produced, per spec.md §4.4.
func runAuth(args []string) error {
	fs := flag.NewFlagSet("auth", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: nullclaw auth <status|check> [provider]")
	}

	switch rest[0] {
	case "status":
		return authStatus()
	case "check":
		if len(rest) < 2 {
			return fmt.Errorf("usage: nullclaw auth check <provider>")
		}
		return authCheck(rest[1])
	default:
		return fmt.Errorf("unknown auth subcommand %q", rest[0])
	}
}

func authStatus() error {
	if _, ok := providers.ResolveGeminiOAuth(); ok {
		fmt.Println("gemini: OAuth credential file valid")
	} else {
		fmt.Println("gemini: no valid OAuth credential file")
	}
	return nil
}

func authCheck(name string) error {
	key := providers.ResolveAPIKey(name, "")
	if key == "" {
		fmt.Printf("%s: no credential resolved\n", name)
		return nil
	}
	fmt.Printf("%s: credential resolved (%d chars)\n", name, len(key))
	return nil
}
