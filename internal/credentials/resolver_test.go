package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/claudewatch/internal/models"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(filepath.Join(t.TempDir(), "token"))
}

func TestParseCredentialJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "valid blob",
			raw:  `{"claudeAiOauth":{"accessToken":"sk-ant-oat01-abc"}}`,
			want: "sk-ant-oat01-abc",
		},
		{
			name:    "missing token",
			raw:     `{"claudeAiOauth":{}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "hunter2",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCredentialJSON(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvePrimary(t *testing.T) {
	r := newTestResolver(t)
	r.lookupPrimary = func(context.Context) (string, error) {
		return `{"claudeAiOauth":{"accessToken":"primary-token"}}`, nil
	}

	secret, ok := r.Resolve(context.Background(), models.SourcePrimary)
	if !ok || secret != "primary-token" {
		t.Errorf("Resolve(primary) = %q, %v", secret, ok)
	}
	if !r.Available(context.Background(), models.SourcePrimary) {
		t.Error("Available(primary) = false")
	}
}

func TestResolvePrimaryFailuresCollapse(t *testing.T) {
	tests := []struct {
		name   string
		lookup func(context.Context) (string, error)
	}{
		{
			name: "not found",
			lookup: func(context.Context) (string, error) {
				return "", &AccessError{Kind: KindNotFound}
			},
		},
		{
			name: "malformed blob",
			lookup: func(context.Context) (string, error) {
				return "not json at all", nil
			},
		},
		{
			name: "store failure",
			lookup: func(context.Context) (string, error) {
				return "", errors.New("keyring locked")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t)
			r.lookupPrimary = tt.lookup
			if _, ok := r.Resolve(context.Background(), models.SourcePrimary); ok {
				t.Error("Resolve should fail")
			}
		})
	}
}

func TestReadPrimaryClassification(t *testing.T) {
	r := newTestResolver(t)

	r.lookupPrimary = func(context.Context) (string, error) {
		return "}{", nil
	}
	_, err := r.ReadPrimary(context.Background())
	var accessErr *AccessError
	if !errors.As(err, &accessErr) || accessErr.Kind != KindMalformed {
		t.Errorf("error = %v, want malformed AccessError", err)
	}

	r.lookupPrimary = func(context.Context) (string, error) {
		return "", errors.New("dbus timeout")
	}
	_, err = r.ReadPrimary(context.Background())
	if !errors.As(err, &accessErr) || accessErr.Kind != KindUnexpected {
		t.Errorf("error = %v, want unexpected AccessError", err)
	}
}

func TestManualStoreLifecycle(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()

	// Nothing saved yet.
	if _, ok := r.Resolve(ctx, models.SourceManual); ok {
		t.Fatal("manual token should be absent")
	}

	if err := r.SaveManual("manual-token"); err != nil {
		t.Fatalf("SaveManual failed: %v", err)
	}
	secret, ok := r.Resolve(ctx, models.SourceManual)
	if !ok || secret != "manual-token" {
		t.Errorf("Resolve(manual) = %q, %v", secret, ok)
	}

	// Overwrite.
	if err := r.SaveManual("replacement"); err != nil {
		t.Fatalf("SaveManual overwrite failed: %v", err)
	}
	if secret, _ := r.Resolve(ctx, models.SourceManual); secret != "replacement" {
		t.Errorf("after overwrite token = %q", secret)
	}

	info, err := os.Stat(r.ManualPath())
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	if err := r.ClearManual(); err != nil {
		t.Fatalf("ClearManual failed: %v", err)
	}
	if _, ok := r.Resolve(ctx, models.SourceManual); ok {
		t.Error("manual token should be gone")
	}

	// Clearing again is still success.
	if err := r.ClearManual(); err != nil {
		t.Errorf("ClearManual on empty store = %v", err)
	}
}

func TestSaveManualRejectsEmpty(t *testing.T) {
	r := newTestResolver(t)
	if err := r.SaveManual("   "); err == nil {
		t.Error("SaveManual should reject blank tokens")
	}
}

func TestNoFallbackBetweenSources(t *testing.T) {
	r := newTestResolver(t)
	r.lookupPrimary = func(context.Context) (string, error) {
		return "", &AccessError{Kind: KindNotFound}
	}
	if err := r.SaveManual("manual-token"); err != nil {
		t.Fatalf("SaveManual failed: %v", err)
	}

	// A manual token must not satisfy a primary request.
	if _, ok := r.Resolve(context.Background(), models.SourcePrimary); ok {
		t.Error("primary resolve must not fall back to manual")
	}
}

func TestWatchFiresOnManualChange(t *testing.T) {
	r := newTestResolver(t)

	changed := make(chan struct{}, 1)
	w, err := r.Watch(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	if err := r.SaveManual("fresh-token"); err != nil {
		t.Fatalf("SaveManual failed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never fired")
	}

	// Double close is a no-op.
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}
