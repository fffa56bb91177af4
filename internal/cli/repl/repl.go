package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"codepad/internal/judge"
	"codepad/internal/session"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

// Session holds REPL state.
type Session struct {
	controller *session.Controller
	workflow   *judge.Workflow
	problemID  string
	language   judge.Language
	out        io.Writer
}

func New(controller *session.Controller, workflow *judge.Workflow, problemID string) *Session {
	return &Session{
		controller: controller,
		workflow:   workflow,
		problemID:  problemID,
		language:   judge.DefaultLanguage(),
		out:        os.Stdout,
	}
}

// Run reads and executes commands until EOF or exit.
func (s *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "codepad> ",
		HistoryFile:     "/tmp/codepad_history",
		InterruptPrompt: "^C",
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer func() { _ = rl.Close() }()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			s.printLine("bye")
			return nil
		}
		if err := s.handleCommand(ctx, line); err != nil {
			s.printLine("error: %v", err)
		}
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	switch tokens[0] {
	case "help":
		s.printHelp()
		return nil
	case "login":
		if len(tokens) < 3 {
			return fmt.Errorf("usage: login <username> <password>")
		}
		if err := s.controller.BasicLogin(ctx, tokens[1], tokens[2]); err != nil {
			return err
		}
		s.printLine("logged in as %s", s.controller.Store().Snapshot().UserID)
		return nil
	case "sso":
		if len(tokens) < 2 {
			return fmt.Errorf("usage: sso <credential-token>")
		}
		if err := s.controller.GoogleSSOLogin(ctx, session.SSOResponse{Credential: tokens[1]}); err != nil {
			return err
		}
		s.printLine("logged in as %s", s.controller.Store().Snapshot().UserID)
		return nil
	case "logout":
		if err := s.controller.Logout(ctx); err != nil {
			return err
		}
		s.printLine("logged out")
		return nil
	case "whoami":
		s.printSession()
		return nil
	case "lang":
		return s.handleLang(tokens[1:])
	case "run":
		return s.handleRun(ctx, tokens[1:])
	default:
		return fmt.Errorf("unknown command %q, try help", tokens[0])
	}
}

func (s *Session) handleLang(args []string) error {
	if len(args) == 0 || args[0] == "list" {
		for _, lang := range judge.Languages() {
			marker := "  "
			if lang.ID == s.language.ID {
				marker = "* "
			}
			s.printLine("%s%-12s %s", marker, lang.Value, lang.Name)
		}
		return nil
	}
	if args[0] == "use" && len(args) > 1 {
		lang, ok := judge.LanguageByValue(args[1])
		if !ok {
			return fmt.Errorf("unknown language %q", args[1])
		}
		s.language = lang
		s.printLine("language set to %s", lang.Name)
		return nil
	}
	return fmt.Errorf("usage: lang [list|use <value>]")
}

func (s *Session) handleRun(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: run <source-file> [--lang <value>] [--stdin <file>]")
	}
	sourcePath := args[0]
	lang := s.language
	stdin := ""

	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--lang":
			if i+1 >= len(args) {
				return fmt.Errorf("--lang needs a value")
			}
			i++
			found, ok := judge.LanguageByValue(args[i])
			if !ok {
				return fmt.Errorf("unknown language %q", args[i])
			}
			lang = found
		case "--stdin":
			if i+1 >= len(args) {
				return fmt.Errorf("--stdin needs a file")
			}
			i++
			data, err := os.ReadFile(args[i])
			if err != nil {
				return fmt.Errorf("read stdin file failed: %w", err)
			}
			stdin = string(data)
		default:
			return fmt.Errorf("unknown flag %q", args[i])
		}
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("read source file failed: %w", err)
	}

	userID := s.controller.Store().Snapshot().UserID
	if err := s.workflow.Submit(ctx, string(source), stdin, lang.ID, userID, s.problemID); err != nil {
		return err
	}
	s.printLine("submitted %s as %s, waiting for verdict...", sourcePath, lang.Value)
	return nil
}

func (s *Session) printSession() {
	state := s.controller.Store().Snapshot()
	if !state.IsAuthenticated {
		s.printLine("not logged in")
		return
	}
	s.printLine("user:       %s", state.UserID)
	s.printLine("login type: %s", state.LoginType)
	if !state.Expiration.IsZero() {
		s.printLine("expires:    %s", state.Expiration.Format(time.RFC3339))
	}
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	s.printLine("  login <username> <password>    password login")
	s.printLine("  sso <credential-token>         Google SSO login")
	s.printLine("  logout                         sign out")
	s.printLine("  whoami                         show session")
	s.printLine("  lang [list|use <value>]        list or pick a language")
	s.printLine("  run <file> [--lang v] [--stdin f]  submit code to the judge")
	s.printLine("  exit                           quit")
}

func (s *Session) printLine(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// PrintResult renders a terminal submission result.
func PrintResult(w io.Writer, result judge.Result) {
	fmt.Fprintf(w, "\nstatus: %s\n", result.Status.Description)
	if stdout, err := result.DecodedStdout(); err == nil && stdout != "" {
		fmt.Fprintf(w, "stdout:\n%s", stdout)
		if !strings.HasSuffix(stdout, "\n") {
			fmt.Fprintln(w)
		}
	}
	if stderr, err := result.DecodedStderr(); err == nil && stderr != "" {
		fmt.Fprintf(w, "stderr:\n%s", stderr)
		if !strings.HasSuffix(stderr, "\n") {
			fmt.Fprintln(w)
		}
	}
}
