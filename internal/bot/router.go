package bot

import (
	"strings"

	"github.com/susu3304/cashubot/internal/token"
)

type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandStart
	CommandAdd
	CommandBalance
	CommandSend
	CommandToken
)

// Command is a routed direct message.
type Command struct {
	Kind CommandKind
	Arg  string
}

// ParseCommand routes the text of a direct message. Anything that is neither a
// known command nor a token candidate is CommandNone.
func ParseCommand(text string) Command {
	text = strings.TrimSpace(text)
	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/start":
		return Command{Kind: CommandStart}
	case "/add":
		return Command{Kind: CommandAdd, Arg: arg}
	case "/balance":
		return Command{Kind: CommandBalance}
	case "/send":
		return Command{Kind: CommandSend, Arg: arg}
	}
	if token.IsCandidate(text) {
		return Command{Kind: CommandToken, Arg: text}
	}
	return Command{Kind: CommandNone}
}
