package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/petasbytes/course-agent/internal/app"
	"github.com/petasbytes/course-agent/internal/config"
	"github.com/petasbytes/course-agent/internal/logger"
	"github.com/petasbytes/course-agent/memory"
	"github.com/petasbytes/course-agent/tools"
)

// sessionID is the one session the CLI keeps across runs.
const sessionID = "cli"

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Env); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	// Load prior sessions if any
	sessions, err := memory.LoadSessions(cfg.SessionPath, cfg.MaxHistory)
	if err != nil {
		log.Warn("Failed to load persisted sessions", zap.String("path", cfg.SessionPath), zap.Error(err))
		sessions = memory.NewSessions(cfg.MaxHistory)
	}

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		<-sigch
		fmt.Println("\nExiting...")
		cancel()
	}()

	a, err := app.New(ctx, cfg, sessions, log)
	if err != nil {
		log.Fatal("Failed to initialize agent", zap.Error(err))
	}
	defer a.Close(context.Background())

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		log.Warn("Markdown rendering disabled", zap.Error(err))
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Ask about your courses (/courses lists them, /clear forgets history, Ctrl-C quits)")

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	go func() {
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

outer:
	for {
		fmt.Print(promptStyle.Render("You") + ": ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			break outer
		case line, ok = <-inputCh:
			if !ok {
				break outer
			}
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/clear":
			sessions.ClearSession(sessionID)
			save(log, sessions, cfg.SessionPath)
			fmt.Println(sourceStyle.Render("History cleared."))
			continue
		case "/courses":
			titles, err := a.Store.CourseTitles(ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
				continue
			}
			fmt.Printf("%d course(s)\n", len(titles))
			for _, t := range titles {
				fmt.Println("  " + t)
			}
			continue
		}

		ans, err := a.Coordinator.Query(ctx, line, sessionID)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
			continue
		}
		fmt.Println(render(renderer, ans.Text))
		printSources(ans.Citations)
		save(log, sessions, cfg.SessionPath)
	}
	if err := scanner.Err(); err != nil {
		log.Warn("stdin read error", zap.Error(err))
	}
}

func render(r *glamour.TermRenderer, text string) string {
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func printSources(cites []tools.Citation) {
	if len(cites) == 0 {
		return
	}
	fmt.Println(sourceStyle.Render("Sources:"))
	for _, c := range cites {
		if c.Link != "" {
			fmt.Println(sourceStyle.Render(fmt.Sprintf("  %s (%s)", c.Label, c.Link)))
		} else {
			fmt.Println(sourceStyle.Render("  " + c.Label))
		}
	}
}

func save(log *zap.Logger, s *memory.Sessions, path string) {
	if err := s.Save(path); err != nil {
		log.Warn("Failed to save sessions", zap.String("path", path), zap.Error(err))
	}
}
