package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"shwrap/internal/config"
	"shwrap/internal/store"
	e "shwrap/pkg/errors"
	"shwrap/pkg/terminal"
)

const storeUsage = "Usage: shwrap store [list [glob]|show <ref>|verify <ref>|path]"

// Store inspects the artifact store.
func Store(cfg *config.Config, args []string) error {
	cfg = orDefault(cfg)
	if len(args) == 0 {
		args = []string{"list"}
	}
	if args[0] == "path" {
		fmt.Println(cfg.StoreRoot())
		return nil
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	switch args[0] {
	case "list", "ls":
		pattern := ""
		if len(args) > 1 {
			pattern = args[1]
		}
		return listArtifacts(s, pattern)
	case "show":
		if len(args) < 2 {
			return e.New(e.ErrInvalidInput, "store show needs an artifact reference").WithSuggestion(storeUsage)
		}
		return showArtifact(s, args[1])
	case "verify":
		if len(args) < 2 {
			return e.New(e.ErrInvalidInput, "store verify needs an artifact reference").WithSuggestion(storeUsage)
		}
		return verifyArtifacts(s, args[1:])
	default:
		fmt.Println(storeUsage)
		return e.New(e.ErrInvalidInput, "unknown store subcommand: "+args[0])
	}
}

func listArtifacts(s *store.FS, pattern string) error {
	arts, err := s.List(pattern)
	if err != nil {
		return err
	}
	if len(arts) == 0 {
		fmt.Printf("No artifacts in %s\n", s.Root())
		return nil
	}
	fmt.Printf("%s %d artifact(s) in %s\n", terminal.IconStore, len(arts), s.Root())
	for _, a := range arts {
		fmt.Printf("  %-20s %s  %s  %s\n", a.Name, a.Hash[:12], a.Created.Local().Format("2006-01-02 15:04"), a.ResolvePath())
	}
	return nil
}

func showArtifact(s *store.FS, ref string) error {
	a, err := s.Get(ref)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", terminal.BoldText("Name:"), a.Name)
	fmt.Printf("%s %s\n", terminal.BoldText("Hash:"), a.Hash)
	fmt.Printf("%s %s\n", terminal.BoldText("Path:"), a.ResolvePath())
	fmt.Printf("%s %s\n", terminal.BoldText("Created:"), a.Created.Local().Format("2006-01-02 15:04:05"))
	if len(a.References) > 0 {
		fmt.Printf("%s %s\n", terminal.BoldText("References:"), strings.Join(a.References, ", "))
	}
	if body, err := os.ReadFile(a.ResolvePath()); err == nil {
		fmt.Println()
		fmt.Print(string(body))
	}
	if a.Verify != "" {
		fmt.Println()
		fmt.Println(terminal.BoldText("Check:"))
		fmt.Print(a.Verify)
	}
	return nil
}

func verifyArtifacts(s *store.FS, refs []string) error {
	failed := 0
	for _, ref := range refs {
		a, err := s.Get(ref)
		if err != nil {
			return err
		}
		if err := s.Verify(context.Background(), a); err != nil {
			failed++
			fmt.Printf("%s %s: %v\n", terminal.IconError, a.Name, err)
			continue
		}
		fmt.Printf("%s %s\n", terminal.IconSuccess, a.Name)
	}
	if failed > 0 {
		return e.New(e.ErrVerifyFailed, fmt.Sprintf("%d artifact(s) failed verification", failed))
	}
	return nil
}
