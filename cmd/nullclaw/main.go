// Command nullclaw runs the nullclaw agentic daemon, or one of its
// auxiliary subcommands (auth, memory). No CLI framework dependency is
// introduced: flags are parsed by hand with the standard flag package,
// since the daemon's own library stack carries none either.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "daemon":
		err = runDaemon(os.Args[2:])
	case "auth":
		err = runAuth(os.Args[2:])
	case "memory":
		err = runMemory(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "nullclaw:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: nullclaw <command> [flags]

commands:
  daemon   run the daemon (--host, --port)
  auth     manage provider OAuth credentials
  memory   export or hydrate the memory snapshot`)
}
