package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"ypsh-lang/internal/config"
	"ypsh-lang/internal/lexer"
	"ypsh-lang/internal/parser"
	"ypsh-lang/internal/runtime"
)

// ---- repl command ----

func cmdRepl() {
	opts, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	prompt := opts.Prompt
	contPrompt := strings.Repeat(".", len(prompt)-1) + " "

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            colorGreen + prompt + colorReset,
		HistoryFile:       opts.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	// Welcome banner
	fmt.Fprintf(rl.Stdout(), "%s%sypsh REPL%s %s(type 'exit' or Ctrl+D to quit)%s\n\n",
		colorBold, colorCyan, colorReset, colorGray, colorReset)

	interp := runtime.NewInterpreter(rl.Stdout(), rl.Stderr())
	interp.SetSearchPaths(opts.SearchPaths)
	var accumulated strings.Builder
	braceDepth := 0

	for {
		// Update prompt based on multi-line state
		if braceDepth > 0 {
			rl.SetPrompt(colorGray + contPrompt + colorReset)
		} else {
			rl.SetPrompt(colorGreen + prompt + colorReset)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if braceDepth > 0 {
					// Cancel multi-line input
					accumulated.Reset()
					braceDepth = 0
					continue
				}
				// Show hint instead of exiting
				fmt.Fprintf(rl.Stdout(), "\n%s(use 'exit' or Ctrl+D to quit)%s\n", colorGray, colorReset)
				continue
			}
			// EOF (Ctrl+D) or other error → exit
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		// Exit command
		if braceDepth == 0 && strings.TrimSpace(line) == "exit" {
			break
		}

		// Count braces for multi-line input
		braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
		accumulated.WriteString(line)
		accumulated.WriteString("\n")

		// If braces are unbalanced, keep reading
		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		source := accumulated.String()
		accumulated.Reset()

		// Skip empty input
		if strings.TrimSpace(source) == "" {
			continue
		}

		// Tokenize
		l := lexer.New(source, "<repl>")
		tokens, lexDiags := l.Tokenize()
		if len(lexDiags) > 0 {
			printDiagsText(rl.Stderr(), lexDiags)
			continue
		}

		// Parse
		p := parser.New(tokens)
		file, parseDiags := p.ParseFile()
		if len(parseDiags) > 0 {
			printDiagsText(rl.Stderr(), parseDiags)
			continue
		}

		// Execute, echoing the value of a trailing expression
		val, err := interp.RunInteractive(file)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "%s\n", errorText(err))
			continue
		}
		if val != nil {
			// print() already wrote its output; don't echo its none result
			if _, isNone := val.(runtime.NoneVal); !isNone {
				fmt.Fprintln(rl.Stdout(), val.String())
			}
		}
	}
}
