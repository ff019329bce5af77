// Copyright © 2018 One Concern

package content

import (
	"crypto/sha1" // #nosec: git-compatible blob fingerprints, not crypto
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/oneconcern/gitshed/pkg/status"
)

const (
	// FingerprintSize is the hex length of a content fingerprint
	FingerprintSize = 40

	// ModeSize is the length of the octal mode part of a key: a leading
	// zero marker plus four octal digits
	ModeSize = 5

	// KeySize is the total length of a key string
	KeySize = FingerprintSize + 1 + ModeSize

	// writeBits are stripped from every mode: store content is immutable
	writeBits = 0o222

	// fingerprint files in blocks, never whole files in memory
	hashBlockSize = 4096
)

// Matches exactly (40 hex digits)_0(4 octal digits).
var keyRe = regexp.MustCompile(`^[0-9a-f]{40}_0[0-7]{4}$`)

// Key identifies one logical content object by fingerprint and permissions.
//
// The textual form is `<40-hex-sha1>_<5-octal-mode>`, e.g.
//
//	8c61f083227d5957c825defd97363c77d2122746_00555
//
// The fingerprint is the git blob hash of the content, so `git hash-object`
// can be used when debugging. The mode part carries the permission bits
// with all write bits forced off: two files with the same bytes but
// different permissions get different keys, while identical bytes and
// permissions dedupe to one key.
type Key string

// ParseKey validates a key string. Malformed keys are a hard error: they
// end up embedded in filesystem paths and symlink targets.
func ParseKey(s string) (Key, error) {
	if !keyRe.MatchString(s) {
		return "", status.ErrInvalidKey.Wrap(fmt.Errorf("%q", s))
	}
	return Key(s), nil
}

// IsValidKey reports whether s is a well-formed key.
func IsValidKey(s string) bool {
	return keyRe.MatchString(s)
}

func (k Key) String() string {
	return string(k)
}

// Fingerprint returns the sha part of the key.
func (k Key) Fingerprint() string {
	return string(k)[:FingerprintSize]
}

// ModeString returns the octal mode part of the key.
func (k Key) ModeString() string {
	return string(k)[FingerprintSize+1:]
}

// Mode returns the mode part as an os.FileMode suitable for Chmod.
func (k Key) Mode() os.FileMode {
	bits, err := strconv.ParseUint(k.ModeString(), 8, 32)
	if err != nil {
		// ParseKey guarantees four octal digits
		return 0
	}
	mode := os.FileMode(bits & 0o777)
	if bits&0o4000 != 0 {
		mode |= os.ModeSetuid
	}
	if bits&0o2000 != 0 {
		mode |= os.ModeSetgid
	}
	if bits&0o1000 != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

// KeyFromFile computes the key of the file at path.
func KeyFromFile(path string) (Key, error) {
	sha, err := FingerprintFile(path)
	if err != nil {
		return "", err
	}
	mode, err := FileModeString(path)
	if err != nil {
		return "", err
	}
	return Key(sha + "_" + mode), nil
}

// FingerprintFile computes the git blob hash of the file at path:
// sha1("blob " + decimal size + "\0" + bytes), streamed in fixed-size
// blocks.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return "", err
	}

	hasher := sha1.New() // #nosec
	fmt.Fprintf(hasher, "blob %d\x00", fi.Size())
	buf := make([]byte, hashBlockSize)
	if _, err = io.CopyBuffer(hasher, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FileModeString computes the mode part of a key for the file at path:
// permission, setuid, setgid and sticky bits, write bits forced off,
// as a zero-marked octal string.
func FileModeString(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return fileModeString(fi.Mode()), nil
}

func fileModeString(mode os.FileMode) string {
	bits := uint32(mode.Perm())
	if mode&os.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if mode&os.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if mode&os.ModeSticky != 0 {
		bits |= 0o1000
	}
	bits &^= writeBits
	return fmt.Sprintf("%05o", bits)
}
