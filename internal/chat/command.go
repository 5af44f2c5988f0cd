// Package chat turns "!reg #<name> #<count>" chat messages into engine calls
// and formats the outcome as a reply. It holds no quota logic of its own.
package chat

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Prefix marks a message as a registration command.
const Prefix = "!reg"

var regPattern = regexp.MustCompile(`^!reg\s+#([^\s#]+)\s+#(\d+)$`)

var (
	// ErrNotCommand is returned for messages that are not registration commands.
	ErrNotCommand = errors.New("not a registration command")
	// ErrBadFormat is returned when a registration command does not parse.
	ErrBadFormat = errors.New("malformed registration command")
	// ErrBadCount is returned when the participant count is not a positive integer.
	ErrBadCount = errors.New("participant count must be positive")
)

// Command is a parsed registration command.
type Command struct {
	Name  string
	Count int
}

// IsCommand reports whether content is addressed to the registration bot.
func IsCommand(content string) bool {
	content = strings.TrimSpace(content)
	return content == Prefix || strings.HasPrefix(content, Prefix+" ")
}

// Parse extracts the team name and participant count from content.
func Parse(content string) (Command, error) {
	content = strings.TrimSpace(content)
	if !IsCommand(content) {
		return Command{}, ErrNotCommand
	}
	m := regPattern.FindStringSubmatch(content)
	if m == nil {
		return Command{}, ErrBadFormat
	}
	count, err := strconv.Atoi(m[2])
	if err != nil || count < 1 {
		return Command{}, ErrBadCount
	}
	return Command{Name: m[1], Count: count}, nil
}
