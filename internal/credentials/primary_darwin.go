//go:build darwin

package credentials

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// errSecItemNotFound is the security(1) exit code for a missing item.
const errSecItemNotFound = 44

// readPrimaryBlob reads Claude Code's credential JSON from the macOS
// Keychain.
func readPrimaryBlob(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "security", "find-generic-password",
		"-s", credentialLabel, "-w").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() == errSecItemNotFound {
				return "", &AccessError{Kind: KindNotFound, Err: err}
			}
			return "", &AccessError{Kind: KindUnexpected, Code: exitErr.ExitCode(), Err: err}
		}
		return "", &AccessError{Kind: KindUnexpected, Err: err}
	}

	blob := strings.TrimSpace(string(out))
	if blob == "" {
		return "", &AccessError{Kind: KindNotFound}
	}
	return blob, nil
}

// primaryCredentialFile has no file-backed equivalent on macOS.
func primaryCredentialFile() string { return "" }
