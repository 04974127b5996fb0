//go:build windows

package credentials

import (
	"context"
	"fmt"
	"syscall"
	"unsafe"
)

var (
	advapi32           = syscall.NewLazyDLL("advapi32.dll")
	procCredEnumerateW = advapi32.NewProc("CredEnumerateW")
	procCredFree       = advapi32.NewProc("CredFree")
)

// sysCredential mirrors Windows CREDENTIAL struct layout.
// https://learn.microsoft.com/en-us/windows/win32/api/wincred/ns-wincred-credentialw
type sysCredential struct {
	Flags              uint32
	Type               uint32
	TargetName         *uint16
	Comment            *uint16
	LastWritten        [8]byte // FILETIME
	CredentialBlobSize uint32
	CredentialBlob     uintptr
	Persist            uint32
	AttributeCount     uint32
	Attributes         uintptr
	TargetAlias        *uint16
	UserName           *uint16
}

// readPrimaryBlob reads Claude Code's credential JSON from the Windows
// Credential Manager.
func readPrimaryBlob(_ context.Context) (string, error) {
	filter, err := syscall.UTF16PtrFromString(credentialLabel + "*")
	if err != nil {
		return "", &AccessError{Kind: KindUnexpected, Err: fmt.Errorf("invalid filter: %w", err)}
	}

	var count uint32
	var creds uintptr
	ret, _, _ := procCredEnumerateW.Call(
		uintptr(unsafe.Pointer(filter)),
		0,
		uintptr(unsafe.Pointer(&count)),
		uintptr(unsafe.Pointer(&creds)),
	)
	if ret == 0 || count == 0 {
		return "", &AccessError{Kind: KindNotFound}
	}
	defer procCredFree.Call(creds)

	// Return the first credential with a non-empty blob; parsing
	// happens in the resolver.
	ptrs := (*[1 << 10]*sysCredential)(unsafe.Pointer(creds))
	for i := uint32(0); i < count; i++ {
		cred := ptrs[i]
		if cred.CredentialBlobSize == 0 {
			continue
		}
		blob := (*[1 << 20]byte)(unsafe.Pointer(cred.CredentialBlob))[:cred.CredentialBlobSize:cred.CredentialBlobSize]
		return string(blob), nil
	}
	return "", &AccessError{Kind: KindNotFound}
}

// primaryCredentialFile has no file-backed equivalent on Windows.
func primaryCredentialFile() string { return "" }
