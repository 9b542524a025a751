package protocol

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vaultd/vaultd/pkg/identity"
)

// ErrSessionEnded is returned by Authenticate when the peer closes the
// connection before completing the authentication phase.
var ErrSessionEnded = errors.New("protocol: session ended during authentication")

const welcomeLine = "WELCOME vaultd\n> "
const authPrompt = "> "

// Authenticate runs the welcome -> LOGIN/SIGNUP loop (spec §4.6) on conn,
// reading lines with lr and writing responses directly to conn. It returns
// the bound username on success.
func Authenticate(conn io.Writer, lr *LineReader, store identity.CredentialStore) (string, error) {
	if _, err := io.WriteString(conn, welcomeLine); err != nil {
		return "", fmt.Errorf("protocol: write welcome: %w", err)
	}

	for {
		line, err := lr.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", ErrSessionEnded
			}
			return "", fmt.Errorf("protocol: read auth line: %w", err)
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			if err := writePrompt(conn, "ERROR: expected CMD USER PASS\n"); err != nil {
				return "", err
			}
			continue
		}

		cmd, username, password := strings.ToUpper(fields[0]), fields[1], fields[2]

		switch cmd {
		case "LOGIN":
			user, err := store.Lookup(username)
			if err != nil || !identity.VerifyPassword(password, user.PasswordHash) {
				if err := writePrompt(conn, "LOGIN_FAILED: invalid username or password\n"); err != nil {
					return "", err
				}
				continue
			}
			if _, err := io.WriteString(conn, fmt.Sprintf("LOGIN_SUCCESS: welcome back, %s\n", username)); err != nil {
				return "", fmt.Errorf("protocol: write login success: %w", err)
			}
			return username, nil

		case "SIGNUP":
			if err := store.Create(username, password); err != nil {
				if err := writePrompt(conn, fmt.Sprintf("SIGNUP_FAILED: %s\n", signupFailureMessage(err))); err != nil {
					return "", err
				}
				continue
			}
			if _, err := io.WriteString(conn, fmt.Sprintf("SIGNUP_SUCCESS: welcome, %s\n", username)); err != nil {
				return "", fmt.Errorf("protocol: write signup success: %w", err)
			}
			return username, nil

		default:
			if err := writePrompt(conn, "ERROR: expected LOGIN or SIGNUP\n"); err != nil {
				return "", err
			}
		}
	}
}

func signupFailureMessage(err error) string {
	switch {
	case errors.Is(err, identity.ErrUserExists):
		return "username already taken"
	case errors.Is(err, identity.ErrEmptyField):
		return "username and password are required"
	case errors.Is(err, identity.ErrUsernameTooLong), errors.Is(err, identity.ErrPasswordTooLong):
		return "username or password exceeds maximum length"
	default:
		return "signup failed"
	}
}

func writePrompt(w io.Writer, message string) error {
	if _, err := io.WriteString(w, message); err != nil {
		return fmt.Errorf("protocol: write auth response: %w", err)
	}
	return nil
}
