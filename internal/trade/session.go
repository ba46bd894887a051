package trade

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Interact runs a line-oriented session: read a command from r, execute it,
// write the reply to w. Blank lines are skipped and "quit" or "exit" ends
// the session. A failed command prints its error and the session goes on.
//
// Cancelling ctx ends the session immediately, even while waiting for input.
// The reader goroutine exits once its pending read returns.
func (s *Service) Interact(ctx context.Context, r io.Reader, w io.Writer, prompt string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go scanLines(ctx, r, lines, scanErr)

	fmt.Fprint(w, prompt)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			return <-scanErr
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			fmt.Fprint(w, prompt)
			continue
		case "quit", "exit":
			return nil
		}

		reply, err := s.Exec(line)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		} else {
			fmt.Fprintln(w, reply.Message)
		}
		fmt.Fprint(w, prompt)
	}
}

// scanLines feeds lines from r until EOF, a read error or cancellation.
// lines is closed on exit and the scanner error, if any, is sent on errc.
func scanLines(ctx context.Context, r io.Reader, lines chan<- string, errc chan<- error) {
	defer close(lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-ctx.Done():
			errc <- nil
			return
		}
	}
	errc <- sc.Err()
}
