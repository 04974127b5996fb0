//go:build linux

package credentials

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// readPrimaryBlob reads Claude Code's credential JSON from the Linux
// secret service (gnome-keyring / kwallet via secret-tool), falling
// back to the credentials file Claude Code writes when no keyring is
// available.
func readPrimaryBlob(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "secret-tool", "lookup",
		"service", credentialLabel).Output()
	if err == nil {
		blob := strings.TrimSpace(string(out))
		if blob != "" {
			return blob, nil
		}
	}

	path := primaryCredentialFile()
	if path == "" {
		return "", &AccessError{Kind: KindNotFound, Err: err}
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return "", &AccessError{Kind: KindNotFound, Err: readErr}
		}
		var exitErr *exec.ExitError
		code := 0
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return "", &AccessError{Kind: KindUnexpected, Code: code, Err: readErr}
	}

	blob := strings.TrimSpace(string(data))
	if blob == "" {
		return "", &AccessError{Kind: KindNotFound}
	}
	return blob, nil
}

// primaryCredentialFile is the file Claude Code stores credentials in
// on systems without a secret service.
func primaryCredentialFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", ".credentials.json")
}
