package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const previewRunes = 100

// REPL reads user input, interprets slash commands and runs chat turns.
type REPL struct {
	session *Session
	in      LineReader
	out     io.Writer
	render  Renderer
	botName string
}

// NewREPL wires a session to console input and output. A nil render prints
// replies unchanged.
func NewREPL(session *Session, in LineReader, out io.Writer, render Renderer) *REPL {
	if render == nil {
		render = PlainRenderer
	}
	return &REPL{
		session: session,
		in:      in,
		out:     out,
		render:  render,
		botName: "AI",
	}
}

// Run loops until /quit, end of input, an interrupt at the prompt, or ctx
// being cancelled during a call. It closes the session, prints the summary
// and returns it.
func (r *REPL) Run(ctx context.Context) (Summary, error) {
	r.printWelcome()

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(r.out, warningStyle.Render("[Interrupted]"))
			return r.finish()
		}

		input, err := r.in.ReadLine(promptStyle.Render("You: "))
		if err != nil {
			fmt.Fprintln(r.out)
			if !errors.Is(err, io.EOF) && !errors.Is(err, ErrInterrupted) {
				summary, _ := r.finish()
				return summary, fmt.Errorf("failed to read input: %w", err)
			}
			return r.finish()
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := r.handleCommand(input)
			if err != nil {
				fmt.Fprintf(r.out, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				return r.finish()
			}
			continue
		}

		completion, err := r.session.Send(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(r.out, warningStyle.Render("[Interrupted]"))
				return r.finish()
			}
			fmt.Fprintf(r.out, "%s %v\n", errorStyle.Render("[Error]"), err)
			continue
		}

		fmt.Fprintf(r.out, "%s %s\n", welcomeStyle.Render(r.botName+":"), r.render(completion.Text))
	}
}

// handleCommand processes a slash command. It returns false when the loop
// should end.
func (r *REPL) handleCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])

	switch command {
	case "/help":
		r.printHelp()
	case "/clear":
		r.session.Clear()
		fmt.Fprintln(r.out, commandStyle.Render("[Conversation cleared]"))
	case "/history":
		r.printHistory()
	case "/count":
		usage := r.session.Usage()
		fmt.Fprintf(r.out, "%s %d messages (excluding system prompt), %d tokens\n",
			infoStyle.Render("[Count]"), r.session.ConversationCount(), usage.TotalTokens)
	case "/quit":
		return false, nil
	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
	return true, nil
}

func (r *REPL) finish() (Summary, error) {
	summary, err := r.session.Close()
	r.printSummary(summary)
	return summary, err
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, welcomeStyle.Render(fmt.Sprintf("Chatting with %s", r.session.Provider())))
	fmt.Fprintln(r.out, infoStyle.Render("Type /help for commands, /quit to exit"))
	fmt.Fprintln(r.out)
}

func (r *REPL) printHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help", "Show this help"},
		{"/clear", "Clear conversation history"},
		{"/history", "Show conversation history"},
		{"/count", "Show message and token counts"},
		{"/quit", "Exit chat"},
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, summaryHeaderStyle.Render("Available Commands"))
	for _, c := range commands {
		fmt.Fprintf(r.out, "  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-10s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, infoStyle.Render("Tip: Ctrl+C or Ctrl+D also exits"))
}

func (r *REPL) printHistory() {
	history := r.session.History()
	if len(history) == 0 {
		fmt.Fprintln(r.out, infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, summaryHeaderStyle.Render("Conversation History"))
	for i, msg := range history {
		content := msg.Content
		if runes := []rune(content); len(runes) > previewRunes {
			content = string(runes[:previewRunes]) + "..."
		}
		content = strings.ReplaceAll(content, "\n", " ")
		fmt.Fprintf(r.out, "  %d. %s: %s\n", i+1, msg.Role, content)
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) printSummary(s Summary) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, summaryHeaderStyle.Render("Session Summary"))
	fmt.Fprintf(r.out, "  %s %d\n", infoStyle.Render("Messages:"), s.Messages)
	fmt.Fprintf(r.out, "  %s %d\n", infoStyle.Render("Turns:"), s.Turns)
	fmt.Fprintf(r.out, "  %s %d\n", infoStyle.Render("Tokens:"), s.Usage.TotalTokens)
	fmt.Fprintln(r.out, infoStyle.Render("Goodbye!"))
}
