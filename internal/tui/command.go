package tui

import (
	"fmt"
	"strings"
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdPost
	cmdReply
	cmdQuote
	cmdDelete
	cmdTimeline
	cmdNotifications
	cmdProfile
	cmdRefresh
	cmdLogin
	cmdLogout
	cmdQuit
)

type command struct {
	kind commandKind
	arg  string
}

var commandNames = []string{
	"post",
	"reply",
	"quote",
	"delete",
	"timeline",
	"notifications",
	"profile",
	"refresh",
	"login",
	"logout",
	"quit",
}

// parseCommand interprets a prompt line. The leading colon is optional here;
// the prompt strips it before calling. An unknown name is an error the model
// surfaces as a status annotation, never a crash.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(strings.TrimPrefix(line, ":"))
	if line == "" {
		return command{kind: cmdNone}, nil
	}
	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)

	var kind commandKind
	switch name {
	case "post", "p":
		kind = cmdPost
	case "reply":
		kind = cmdReply
	case "quote":
		kind = cmdQuote
	case "delete":
		kind = cmdDelete
	case "timeline", "tl":
		kind = cmdTimeline
	case "notifications", "notifs":
		kind = cmdNotifications
	case "profile":
		kind = cmdProfile
	case "refresh":
		kind = cmdRefresh
	case "login":
		kind = cmdLogin
	case "logout":
		kind = cmdLogout
	case "quit", "q":
		kind = cmdQuit
	default:
		return command{}, fmt.Errorf("unknown command %q", name)
	}

	switch kind {
	case cmdProfile, cmdLogin:
		// optional argument: handle for profile, identifier for login
	default:
		if arg != "" {
			return command{}, fmt.Errorf("%s takes no argument", name)
		}
	}
	return command{kind: kind, arg: strings.TrimPrefix(arg, "@")}, nil
}

// completeCommand extends a partial command name to its unique match, or
// returns the input unchanged when zero or several names match.
func completeCommand(partial string) string {
	trimmed := strings.TrimPrefix(partial, ":")
	if trimmed == "" || strings.Contains(trimmed, " ") {
		return partial
	}
	var match string
	for _, name := range commandNames {
		if !strings.HasPrefix(name, strings.ToLower(trimmed)) {
			continue
		}
		if match != "" {
			return partial
		}
		match = name
	}
	if match == "" {
		return partial
	}
	if strings.HasPrefix(partial, ":") {
		return ":" + match
	}
	return match
}
