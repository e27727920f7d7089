package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const promptMarker = "shopbot> "

type prompter interface {
	HandlePrompt(ctx context.Context, prompt string) string
}

// runChat answers one line at a time. When not interactive it answers the
// first non-empty line and returns.
func runChat(ctx context.Context, p prompter, in io.Reader, out io.Writer, interactive bool) error {
	scanner := bufio.NewScanner(in)

	if interactive {
		fmt.Fprint(out, promptMarker)
	}

	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			if interactive {
				fmt.Fprint(out, promptMarker)
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			break
		}

		fmt.Fprintln(out, p.HandlePrompt(ctx, input))

		if !interactive {
			break // single exchange in pipe mode
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, promptMarker)
	}
	return scanner.Err()
}
