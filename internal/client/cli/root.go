package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) getStatus() string {
	if a.email != "" {
		return fmt.Sprintf(" (%s)", a.email)
	}
	if a.isLoggedIn() {
		return " (token)"
	}
	return ""
}

// Root runs the interactive session on stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	log.Printf("Welcome to OpenFlag CLI, server %s (type 'help' for commands)", a.config.ServerURL)
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
