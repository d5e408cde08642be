// Package parser parses the shell's backslash built-in commands, for example
// \history[limit=5] or \sessions[filter=starred, sort=title] pricing.
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Prefix starts every built-in command.
const Prefix = "\\"

var namePattern = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_-]*)(?:\[([^\]]*)\])?$`)

// Command is a parsed built-in: name, bracket options and the free-text message after them.
type Command struct {
	Name    string
	Options map[string]string
	Message string
}

// IsCommand reports whether input is addressed to a built-in rather than the command grammar.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), Prefix)
}

// ParseCommand parses \name[opt=value, flag] message.
func ParseCommand(input string) (*Command, error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, Prefix) {
		return nil, fmt.Errorf("command must start with '%s'", Prefix)
	}
	input = input[len(Prefix):]
	if input == "" {
		return nil, fmt.Errorf("empty command")
	}

	head, message := splitHead(input)
	matches := namePattern.FindStringSubmatch(head)
	if matches == nil {
		return nil, fmt.Errorf("invalid command format: %s", head)
	}

	cmd := &Command{
		Name:    strings.ToLower(matches[1]),
		Options: make(map[string]string),
		Message: message,
	}
	if matches[2] != "" {
		parseOptions(matches[2], cmd.Options)
	}
	return cmd, nil
}

// splitHead separates the name and bracket block from the message. Spaces inside the brackets
// belong to the options.
func splitHead(s string) (string, string) {
	depth := 0
	for i, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case (r == ' ' || r == '\t') && depth == 0:
			return s[:i], strings.TrimSpace(s[i+1:])
		}
	}
	return s, ""
}

func parseOptions(optionsStr string, options map[string]string) {
	for _, part := range splitOptions(optionsStr) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			options[part] = ""
			continue
		}
		options[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// splitOptions splits on commas outside quotes.
func splitOptions(s string) []string {
	var parts []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
			current.WriteByte(c)
		case quote != 0 && c == quote:
			quote = 0
			current.WriteByte(c)
		case quote == 0 && c == ',':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// Option returns the option value, or def when it is absent or empty.
func (c *Command) Option(key, def string) string {
	if v, ok := c.Options[key]; ok && v != "" {
		return v
	}
	return def
}

// IntOption returns an integer option, or def when it is absent.
func (c *Command) IntOption(key string, def int) (int, error) {
	v, ok := c.Options[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("option %s must be a number, got %q", key, v)
	}
	return n, nil
}

// HasFlag reports whether key was given, with or without a value.
func (c *Command) HasFlag(key string) bool {
	_, ok := c.Options[key]
	return ok
}

// String renders the command back in input form with options sorted by key.
func (c *Command) String() string {
	var b strings.Builder
	b.WriteString(Prefix + c.Name)
	if len(c.Options) > 0 {
		keys := make([]string, 0, len(c.Options))
		for k := range c.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("[")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			if v := c.Options[k]; v != "" {
				fmt.Fprintf(&b, "%s=%q", k, v)
			} else {
				b.WriteString(k)
			}
		}
		b.WriteString("]")
	}
	if c.Message != "" {
		b.WriteString(" " + c.Message)
	}
	return b.String()
}
