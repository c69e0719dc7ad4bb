// Package manifest parses a slot's manifest.json, verifies its RSA
// signature over the canonical encoding of its {version, files} view,
// and verifies every listed file's SHA-256 against the slot directory.
//
// Grounded on mcptrust-mcptrust/internal/crypto/signer.go's PEM-load
// pattern (adapted from Ed25519 to RSA PKCS#1 v1.5 / SHA-256) and
// canonical-chisel/internal/manifest's path-keyed file-hash shape.
package manifest

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/meinefirma/meineapp-launcher/internal/canon"
)

// FailureKind discriminates why Verify did not return OK, per spec §7.
type FailureKind string

const (
	// None is the zero value, used only on success.
	None              FailureKind = ""
	MalformedManifest FailureKind = "malformed_manifest"
	BadSignature      FailureKind = "bad_signature"
	SignatureInvalid  FailureKind = "signature_invalid"
	MissingFile       FailureKind = "missing_file"
	HashMismatch      FailureKind = "hash_mismatch"
	UnsafePath        FailureKind = "unsafe_path"
	EmptyManifest     FailureKind = "empty_manifest"
)

// Result is the tagged outcome of Verify. OK is true only when every
// invariant in spec §4.2 held; otherwise Reason names the first cause
// encountered and Detail/Path carry human-readable context for the
// Orchestrator's status narration.
type Result struct {
	OK     bool
	Reason FailureKind
	Path   string
	Detail string
}

func (r Result) Error() string {
	if r.OK {
		return ""
	}
	if r.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Reason, r.Detail, r.Path)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

func fail(kind FailureKind, path, detail string) Result {
	return Result{OK: false, Reason: kind, Path: path, Detail: detail}
}

// Verifier holds the embedded public key used to check every manifest
// signature. It is safe for concurrent use; construction parses the PEM
// exactly once.
type Verifier struct {
	publicKey *rsa.PublicKey
}

// NewVerifier parses a PEM-encoded RSA public key, per spec §9: the
// embedded public key is a build-time config value passed in at
// construction, never ambient global state.
func NewVerifier(publicKeyPEM []byte) (*Verifier, error) {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return nil, fmt.Errorf("manifest: failed to decode PEM block for public key")
	}

	var pub *rsa.PublicKey
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		pub = key
	} else if any, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaKey, ok := any.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("manifest: public key is not RSA")
		}
		pub = rsaKey
	} else {
		return nil, fmt.Errorf("manifest: failed to parse RSA public key: %w", err)
	}

	return &Verifier{publicKey: pub}, nil
}

// rawDocument is the minimal shape used to type-check the recognized
// manifest fields before building the canonical "unsigned view".
type rawDocument map[string]json.RawMessage

// Verify runs the seven steps of spec §4.2 against manifestPath and the
// files under slotDir.
func (v *Verifier) Verify(manifestPath, slotDir string) Result {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fail(MalformedManifest, "", fmt.Sprintf("read manifest: %v", err))
	}

	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fail(MalformedManifest, "", fmt.Sprintf("parse manifest: %v", err))
	}

	sigB64, res := extractSignature(doc)
	if !res.OK {
		return res
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fail(BadSignature, "", fmt.Sprintf("signature is not valid base64: %v", err))
	}

	version, res := extractVersion(doc)
	if !res.OK {
		return res
	}

	rawFiles, res := extractFiles(doc)
	if !res.OK {
		return res
	}

	normFiles, res := normalizeFiles(rawFiles)
	if !res.OK {
		return res
	}

	unsigned := map[string]any{
		"version": version,
		"files":   canon.FilesMap(normFiles),
	}
	encoded, err := canon.Encode(unsigned)
	if err != nil {
		return fail(MalformedManifest, "", fmt.Sprintf("canonicalize manifest: %v", err))
	}

	digest := sha256.Sum256(encoded)
	if err := rsa.VerifyPKCS1v15(v.publicKey, crypto.SHA256, digest[:], sig); err != nil {
		return fail(SignatureInvalid, "", fmt.Sprintf("signature verification failed: %v", err))
	}

	for relPath, expectedHex := range normFiles {
		if res := verifyFile(slotDir, relPath, expectedHex); !res.OK {
			return res
		}
	}

	if len(normFiles) == 0 {
		return fail(EmptyManifest, "", "manifest lists no files")
	}

	return Result{OK: true}
}

func extractSignature(doc rawDocument) (string, Result) {
	raw, ok := doc["signature"]
	if !ok {
		return "", fail(BadSignature, "", "missing signature field")
	}
	var sig string
	if err := json.Unmarshal(raw, &sig); err != nil || strings.TrimSpace(sig) == "" {
		return "", fail(BadSignature, "", "signature must be a nonempty string")
	}
	return sig, Result{OK: true}
}

func extractVersion(doc rawDocument) (string, Result) {
	raw, ok := doc["version"]
	if !ok {
		return "", fail(MalformedManifest, "", "missing version field")
	}
	var version string
	if err := json.Unmarshal(raw, &version); err != nil || strings.TrimSpace(version) == "" {
		return "", fail(MalformedManifest, "", "version must be a nonempty string")
	}
	return version, Result{OK: true}
}

func extractFiles(doc rawDocument) (map[string]string, Result) {
	raw, ok := doc["files"]
	if !ok {
		return nil, fail(MalformedManifest, "", "missing files field")
	}
	var files map[string]string
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, fail(MalformedManifest, "", "files must be a string-to-string mapping")
	}
	return files, Result{OK: true}
}

func normalizeFiles(in map[string]string) (map[string]string, Result) {
	out := make(map[string]string, len(in))
	for rawPath, hash := range in {
		normPath, err := NormalizePath(rawPath)
		if err != nil {
			return nil, fail(UnsafePath, rawPath, err.Error())
		}
		out[normPath] = strings.ToLower(hash)
	}
	return out, Result{OK: true}
}

func verifyFile(slotDir, relPath, expectedHex string) Result {
	hostPath := filepath.Join(slotDir, filepath.FromSlash(relPath))
	f, err := os.Open(hostPath)
	if err != nil {
		return fail(MissingFile, relPath, err.Error())
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fail(MissingFile, relPath, err.Error())
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, expectedHex) {
		return fail(HashMismatch, relPath, fmt.Sprintf("expected %s, got %s", expectedHex, actual))
	}
	return Result{OK: true}
}

// NormalizePath implements spec §4.2's path normalization: accept both
// separators, drop empty and "." segments, reject any ".." segment.
// The result always uses "/" and is the canonical form hashed into the
// signature; callers that need a filesystem path must run it through
// filepath.FromSlash.
func NormalizePath(p string) (string, error) {
	slashed := strings.ReplaceAll(p, "\\", "/")
	segments := strings.Split(slashed, "/")

	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("unsafe path %q: contains '..' segment", p)
		default:
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "", fmt.Errorf("unsafe path %q: normalizes to empty path", p)
	}
	return strings.Join(out, "/"), nil
}
