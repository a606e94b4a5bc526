package ux

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/kite/internal/artifacts"
)

// RenderArtifactStatus prints the artifact listing for a workspace,
// generalizing orc's RenderStatus (ticket/phase/artifacts) to Kite's
// name -> path artifact store, which has no phase-index state to render.
func RenderArtifactStatus(store *artifacts.Store) {
	fmt.Printf("%sArtifacts:%s\n", Bold, Reset)
	names := store.List()
	if len(names) == 0 {
		fmt.Printf("  %s(none)%s\n", Dim, Reset)
		return
	}
	for _, name := range names {
		path, ok := store.Get(name)
		if !ok {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			fmt.Printf("  %-20s %s(missing: %s)%s\n", name, Dim, path, Reset)
			continue
		}
		if info.IsDir() {
			entries, _ := os.ReadDir(path)
			fmt.Printf("  %-20s %s%s/ (%d entries)%s\n", name, Dim, filepath.Base(path), len(entries), Reset)
		} else {
			fmt.Printf("  %-20s %s%s (%d bytes)%s\n", name, Dim, filepath.Base(path), info.Size(), Reset)
		}
	}
	fmt.Println()
}
