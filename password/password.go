// Package password hashes and verifies account passwords.
//
// Digests use the "pbkdf2:<hash>:<iterations>$<salt>$<hex>" layout so accounts
// created by werkzeug's generate_password_hash keep working.
package password

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Method is the KDF and hash written into new digests.
	Method = "pbkdf2:sha256"
	// Iterations is the PBKDF2 work factor for new digests.
	Iterations = 600000
	// SaltLength is the number of salt characters for new digests.
	SaltLength = 8

	saltChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Applied when a digest names no iteration count.
	defaultIterations = 600000
)

// Hash returns a salted PBKDF2 digest of pw.
func Hash(pw string) string {
	salt := genSalt(SaltLength)
	sum := derive(sha256.New, pw, salt, Iterations)
	return fmt.Sprintf("%s:%d$%s$%s", Method, Iterations, salt, hex.EncodeToString(sum))
}

// Verify reports whether pw matches digest. Malformed digests never match.
func Verify(pw, digest string) bool {
	parts := strings.SplitN(digest, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, want := parts[0], parts[1], parts[2]

	newHash, iterations, ok := parseMethod(method)
	if !ok {
		return false
	}
	wantSum, err := hex.DecodeString(want)
	if err != nil || len(wantSum) == 0 {
		return false
	}
	got := derive(newHash, pw, salt, iterations)
	return hmac.Equal(got, wantSum)
}

func parseMethod(method string) (func() hash.Hash, int, bool) {
	fields := strings.Split(method, ":")
	if len(fields) < 2 || len(fields) > 3 || fields[0] != "pbkdf2" {
		return nil, 0, false
	}
	var newHash func() hash.Hash
	switch fields[1] {
	case "sha256":
		newHash = sha256.New
	case "sha512":
		newHash = sha512.New
	default:
		return nil, 0, false
	}
	iterations := defaultIterations
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil || n <= 0 {
			return nil, 0, false
		}
		iterations = n
	}
	return newHash, iterations, true
}

func derive(newHash func() hash.Hash, pw, salt string, iterations int) []byte {
	return pbkdf2.Key([]byte(pw), []byte(salt), iterations, newHash().Size(), newHash)
}

func genSalt(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("password: read random salt: %v", err))
	}
	for i, b := range buf {
		buf[i] = saltChars[int(b)%len(saltChars)]
	}
	return string(buf)
}
