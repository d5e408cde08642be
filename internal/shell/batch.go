package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"jarvis/internal/logger"
)

// RunBatch runs every non-empty, non-comment line of r through Execute and then waits for the
// dispatcher to finish queued work. Processing stops early when ctx is cancelled.
func (s *Shell) RunBatch(ctx context.Context, out Printer, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	lines := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return lines, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines++
		out.Println(s.theme.Current().Command.Render("> " + line))
		s.Execute(ctx, out, line)
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("failed to read batch input: %w", err)
	}
	s.dispatcher.Wait()
	logger.Debug("Batch finished", "lines", lines)
	return lines, nil
}

// RunBatchFile runs a .jarvis script file.
func (s *Shell) RunBatchFile(ctx context.Context, out Printer, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()
	return s.RunBatch(ctx, out, f)
}

// WriterPrinter adapts an io.Writer, such as os.Stdout, to Printer.
type WriterPrinter struct {
	W io.Writer
}

// Println writes the values followed by a newline.
func (p WriterPrinter) Println(val ...interface{}) {
	fmt.Fprintln(p.W, val...)
}

// Printf writes formatted output.
func (p WriterPrinter) Printf(format string, val ...interface{}) {
	fmt.Fprintf(p.W, format, val...)
}
