package models

import (
	"strings"
	"unicode"
)

// CommandType enumerates supported operator command categories.
type CommandType string

const (
	CommandLowStock CommandType = "lowstock"
	CommandAddStock CommandType = "addstock"
	CommandRestock  CommandType = "restock"
	CommandSale     CommandType = "sale"
	CommandInvoice  CommandType = "invoice"
	CommandHelp     CommandType = "help"
	CommandUnknown  CommandType = "unknown"
)

// Command represents a parsed operator instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages. Only
// the command word is case-insensitive; arguments keep their case because
// item and patient names are matched exactly. Double-quoted text, including
// the curly quotes phone keyboards insert, is one argument.
func ParseCommand(message string) Command {
	tokens := tokenize(message)
	cmd := Command{Type: CommandUnknown, Raw: message}

	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch CommandType(head) {
	case CommandLowStock, CommandAddStock, CommandRestock, CommandSale, CommandInvoice, CommandHelp:
		cmd.Type = CommandType(head)
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}

func isOpenQuote(r rune) bool  { return r == '"' || r == '\u201c' }
func isCloseQuote(r rune) bool { return r == '"' || r == '\u201d' }

// tokenize splits on whitespace, keeping quoted runs together. An unterminated
// quote runs to the end of the message.
func tokenize(message string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		pending bool
	)
	flush := func() {
		if pending {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		pending = false
	}

	for _, r := range message {
		switch {
		case quoted && isCloseQuote(r):
			quoted = false
		case quoted:
			current.WriteRune(r)
		case isOpenQuote(r):
			quoted = true
			pending = true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	flush()
	return tokens
}
