package protocol

import (
	"errors"
	"strings"

	"github.com/vaultd/vaultd/pkg/queue"
)

// Verb identifies which command-phase verb a line names.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbUpload
	VerbDownload
	VerbDelete
	VerbList
	VerbQuit
	VerbExit
)

func (v Verb) String() string {
	switch v {
	case VerbUpload:
		return "UPLOAD"
	case VerbDownload:
		return "DOWNLOAD"
	case VerbDelete:
		return "DELETE"
	case VerbList:
		return "LIST"
	case VerbQuit:
		return "QUIT"
	case VerbExit:
		return "EXIT"
	default:
		return "UNKNOWN"
	}
}

// ErrUnknownCommand is returned by ParseCommand for an unrecognised verb.
var ErrUnknownCommand = errors.New("protocol: unknown command")

// ErrFilenameRequired is returned by ParseCommand when UPLOAD/DOWNLOAD/DELETE
// is given without a filename argument.
var ErrFilenameRequired = errors.New("protocol: filename required")

// Command is a parsed command-phase line.
type Command struct {
	Verb     Verb
	Filename string
	Priority queue.Priority
}

// ParseCommand implements the priority-aware command tokenizer: the first
// token is the uppercased verb; the next one or two tokens may be a
// filename (not starting with '-') and/or a priority flag
// (--high/--low/--medium/--priority=high|medium|low, or bare -high/-low).
// An unrecognised flag token defaults to MEDIUM rather than erroring; only
// an unrecognised verb is a parse failure.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "> ")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}

	verb := parseVerb(strings.ToUpper(fields[0]))
	if verb == VerbUnknown {
		return Command{}, ErrUnknownCommand
	}

	cmd := Command{Verb: verb, Priority: queue.PriorityMedium}

	for _, tok := range fields[1:] {
		if strings.HasPrefix(tok, "-") {
			cmd.Priority = parsePriorityFlag(tok)
			continue
		}
		if cmd.Filename == "" {
			cmd.Filename = tok
		}
	}

	switch verb {
	case VerbUpload, VerbDownload, VerbDelete:
		if cmd.Filename == "" {
			return Command{}, ErrFilenameRequired
		}
	case VerbList, VerbQuit, VerbExit:
		cmd.Filename = ""
	}

	return cmd, nil
}

func parseVerb(s string) Verb {
	switch s {
	case "UPLOAD":
		return VerbUpload
	case "DOWNLOAD":
		return VerbDownload
	case "DELETE":
		return VerbDelete
	case "LIST":
		return VerbList
	case "QUIT":
		return VerbQuit
	case "EXIT":
		return VerbExit
	default:
		return VerbUnknown
	}
}

// parsePriorityFlag maps a flag token to a priority, defaulting to MEDIUM
// for anything it doesn't recognise. Both --high/-high and --low/-low are
// accepted with no warning for the bare single-dash forms.
func parsePriorityFlag(tok string) queue.Priority {
	switch strings.ToLower(tok) {
	case "--high", "-high":
		return queue.PriorityHigh
	case "--low", "-low":
		return queue.PriorityLow
	case "--medium", "-medium":
		return queue.PriorityMedium
	case "--priority=high":
		return queue.PriorityHigh
	case "--priority=low":
		return queue.PriorityLow
	case "--priority=medium":
		return queue.PriorityMedium
	default:
		return queue.PriorityMedium
	}
}
