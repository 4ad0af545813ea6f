package checksum

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// Algorithm names a supported digest algorithm.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// New returns a fresh hash for the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q", string(a))
	}
}

// AlgorithmFor infers the algorithm from a hex digest's length:
// 64 characters for SHA-256, 128 for SHA-512.
func AlgorithmFor(digest string) (Algorithm, error) {
	if _, err := hex.DecodeString(digest); err != nil {
		return "", fmt.Errorf("invalid digest %q: not hexadecimal", digest)
	}
	switch len(digest) {
	case sha256.Size * 2:
		return SHA256, nil
	case sha512.Size * 2:
		return SHA512, nil
	default:
		return "", fmt.Errorf("invalid digest %q: length %d matches no supported algorithm", digest, len(digest))
	}
}

// MismatchError reports a file whose digest differs from the expected one.
// Path is left out of the message; callers name the file they verified.
type MismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}

// ComputeFile streams path through the algorithm's hash and returns the
// lowercase hex digest. ctx is checked between reads.
func ComputeFile(ctx context.Context, path string, algo Algorithm) (string, error) {
	h, err := algo.New()
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(h, &ctxReader{ctx: ctx, r: f}); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ComputeSHA256 is ComputeFile with SHA-256.
func ComputeSHA256(ctx context.Context, path string) (string, error) {
	return ComputeFile(ctx, path, SHA256)
}

// VerifyFile compares the digest of path with expected (case-insensitive).
// The algorithm is inferred from the length of expected. It returns the
// actual digest, and a *MismatchError when the two differ.
func VerifyFile(ctx context.Context, path, expected string) (string, error) {
	expected = strings.ToLower(strings.TrimSpace(expected))
	algo, err := AlgorithmFor(expected)
	if err != nil {
		return "", err
	}

	actual, err := ComputeFile(ctx, path, algo)
	if err != nil {
		return "", err
	}
	if actual != expected {
		return actual, &MismatchError{Path: path, Expected: expected, Actual: actual}
	}
	return actual, nil
}

// ctxReader fails reads once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
