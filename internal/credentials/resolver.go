// Package credentials resolves the access token used against the usage
// API, from either Claude Code's own credential store (read-only) or a
// manually entered token file.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/j-veylop/claudewatch/internal/models"
)

// credentialLabel is the name Claude Code stores its credential under.
const credentialLabel = "Claude Code-credentials"

// AccessKind classifies a primary-store read failure.
type AccessKind int

const (
	// KindNotFound means no credential exists in the store.
	KindNotFound AccessKind = iota
	// KindMalformed means a credential exists but could not be parsed.
	KindMalformed
	// KindUnexpected is any other store failure, with the tool's exit code.
	KindUnexpected
)

// AccessError is a classified primary credential store failure. The
// refresh path never sees it; only diagnostic callers do.
type AccessError struct {
	Kind AccessKind
	Code int
	Err  error
}

func (e *AccessError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return "credential not found"
	case KindMalformed:
		return fmt.Sprintf("credential malformed: %v", e.Err)
	default:
		return fmt.Sprintf("credential store error (code %d): %v", e.Code, e.Err)
	}
}

func (e *AccessError) Unwrap() error { return e.Err }

// Resolver produces a usable secret for a requested source. It never
// writes to the primary store.
type Resolver struct {
	manualPath string

	// lookupPrimary is the per-OS store read, overridable in tests.
	lookupPrimary func(ctx context.Context) (string, error)
}

// NewResolver creates a resolver whose manual token lives at path.
func NewResolver(manualPath string) *Resolver {
	return &Resolver{
		manualPath:    manualPath,
		lookupPrimary: readPrimaryBlob,
	}
}

// parseCredentialJSON extracts the OAuth access token from Claude
// Code's credential JSON blob.
func parseCredentialJSON(raw string) (string, error) {
	var creds struct {
		ClaudeAiOauth struct {
			AccessToken string `json:"accessToken"`
		} `json:"claudeAiOauth"`
	}
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return "", err
	}
	if creds.ClaudeAiOauth.AccessToken == "" {
		return "", errors.New("empty access token")
	}
	return creds.ClaudeAiOauth.AccessToken, nil
}

// ReadPrimary reads and parses the read-only primary credential,
// returning a classified *AccessError on any failure.
func (r *Resolver) ReadPrimary(ctx context.Context) (string, error) {
	blob, err := r.lookupPrimary(ctx)
	if err != nil {
		var accessErr *AccessError
		if errors.As(err, &accessErr) {
			return "", err
		}
		return "", &AccessError{Kind: KindUnexpected, Err: err}
	}

	token, err := parseCredentialJSON(blob)
	if err != nil {
		return "", &AccessError{Kind: KindMalformed, Err: err}
	}
	return token, nil
}

// Resolve returns a secret for the requested source. Every failure
// mode collapses to ok=false; there is no fallback between sources.
func (r *Resolver) Resolve(ctx context.Context, src models.TokenSource) (secret string, ok bool) {
	switch src {
	case models.SourcePrimary:
		token, err := r.ReadPrimary(ctx)
		if err != nil {
			return "", false
		}
		return token, true

	case models.SourceManual:
		data, err := os.ReadFile(r.manualPath)
		if err != nil {
			return "", false
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", false
		}
		return token, true

	default:
		return "", false
	}
}

// Available reports whether a secret can be resolved for the source.
func (r *Resolver) Available(ctx context.Context, src models.TokenSource) bool {
	_, ok := r.Resolve(ctx, src)
	return ok
}

// SaveManual stores the manual token, overwriting any previous one.
func (r *Resolver) SaveManual(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(r.manualPath), 0o750); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	// Delete-then-write keeps overwrite semantics explicit even if the
	// file mode changed underneath us.
	if err := os.Remove(r.manualPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	if err := os.WriteFile(r.manualPath, []byte(secret+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// ClearManual removes the manual token. Absence is success.
func (r *Resolver) ClearManual() error {
	if err := os.Remove(r.manualPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// ManualPath returns the manual token file location.
func (r *Resolver) ManualPath() string {
	return r.manualPath
}
