package main

import (
	"flag"
	"fmt"

	"github.com/nullclaw/nullclaw/internal/config"
	"github.com/nullclaw/nullclaw/internal/memory"
)

// runMemory implements "nullclaw memory export" and "nullclaw memory
// hydrate" over the workspace's vector store, per spec.md §4.12.
func runMemory(args []string) error {
	fs := flag.NewFlagSet("memory", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath(), "path to config.json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: nullclaw memory <export|hydrate>")
	}

	cfg := config.Load(*configPath)
	embeddingFn := memory.ResolveEmbeddingFunc("")
	if embeddingFn == nil {
		return fmt.Errorf("no OpenAI or OpenRouter credential available to embed memory entries")
	}
	store, err := memory.NewVectorStore(cfg.Workspace, embeddingFn)
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}

	switch rest[0] {
	case "export":
		n, err := memory.Export(store, cfg.Workspace)
		if err != nil {
			return err
		}
		fmt.Printf("exported %d core entries\n", n)
		return nil
	case "hydrate":
		n, err := memory.Hydrate(store, cfg.Workspace)
		if err != nil {
			return err
		}
		fmt.Printf("hydrated %d entries\n", n)
		return nil
	default:
		return fmt.Errorf("unknown memory subcommand %q", rest[0])
	}
}
