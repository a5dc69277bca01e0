// Command ecma is the native CLI entry point: it runs a script file or
// starts an interactive REPL.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/ArnoudK/libecma/pkg/diagnostics"
	"github.com/ArnoudK/libecma/pkg/evaluator"
	"github.com/ArnoudK/libecma/pkg/formatter"
	"github.com/ArnoudK/libecma/pkg/runtime"
)

const (
	appName     = "ecma"
	version     = "0.3.0"
	historyFile = ".ecma_history"
	promptMain  = "> "
	promptCont  = "... "
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl())
	case "version":
		fmt.Println(version)
	case "-h", "--help", "help":
		usage()
	default:
		// A bare path runs the file, the common invocation.
		if strings.HasPrefix(cmd, "-") {
			fmt.Fprintf(os.Stderr, "%s: unknown flag %q\n", appName, cmd)
			usage()
			os.Exit(2)
		}
		os.Exit(cmdRun(os.Args[1:]))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  %s <file.js>           Run a script.
  %s run <file.js>       Run a script.
  %s repl                Start the REPL.
  %s version             Print the version.
`, appName, appName, appName, appName)
}

func cmdRun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file.js>\n", appName)
		return 2
	}
	file := args[0]

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	rt := runtime.New()
	_, diags, rerr := rt.Run(string(src))
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatAll(diags, file, string(src)))
		return 1
	}
	if rerr != nil {
		fmt.Fprintln(os.Stderr, formatRuntimeError(rerr, file, string(src)))
		return 1
	}
	return 0
}

func formatRuntimeError(err error, file, src string) string {
	var re *evaluator.RuntimeError
	if errors.As(err, &re) {
		d := diagnostics.MakeDiag(re.Code, re.Message, re.Span, "")
		return diagnostics.Format(d, file, src)
	}
	return err.Error()
}

// --- repl ---

func cmdRepl() int {
	fmt.Printf("ecma %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.\n", version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	rt := runtime.New()

	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		v, diags, err := rt.Run(code)
		if len(diags) > 0 {
			fmt.Fprintln(os.Stderr, diagnostics.FormatAll(diags, "<repl>", code))
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, formatRuntimeError(err, "<repl>", code))
			continue
		}
		fmt.Println(formatter.FormatValue(v))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readInput reads one entry, continuing onto extra lines while the braces,
// brackets, and parens of what was typed so far stay unbalanced.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if balanced(b.String()) {
			return b.String(), true
		}
	}
}

// balanced reports whether every (, [, { in src has closed, skipping string
// and template bodies.
func balanced(src string) bool {
	depth := 0
	var quote byte
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth <= 0
}
