package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	digest := Hash("p1")

	require.True(t, strings.HasPrefix(digest, "pbkdf2:sha256:600000$"), digest)
	parts := strings.Split(digest, "$")
	require.Len(t, parts, 3)
	assert.Len(t, parts[1], SaltLength)
	assert.Len(t, parts[2], 64)

	assert.True(t, Verify("p1", digest))
	assert.False(t, Verify("p2", digest))
	assert.False(t, Verify("", digest))
}

func TestHashSaltsEachCall(t *testing.T) {
	a, b := Hash("same"), Hash("same")
	assert.NotEqual(t, a, b)
	assert.True(t, Verify("same", a))
	assert.True(t, Verify("same", b))
}

func TestVerifyKnownDigests(t *testing.T) {
	tests := []struct {
		name   string
		pw     string
		digest string
	}{
		{
			name:   "sha256 with iterations",
			pw:     "secret",
			digest: "pbkdf2:sha256:1000$saltsalt$86047d1ecaad2aea56c699eff32f7d4eb3c36a34d3ffd3dc49394d69fa5d2d74",
		},
		{
			name:   "sha512 with iterations",
			pw:     "secret",
			digest: "pbkdf2:sha512:1000$saltsalt$b26d3dad4cd2dfefb7f9caac5b3888a1614ef1b1249cac09c0612fc83d6b6b83dc589b793a258594cfc156ff326c97b85d6f2a329ab7dde705ace6a26cd1a21c",
		},
		{
			name:   "sha256 default iterations",
			pw:     "secret",
			digest: "pbkdf2:sha256$saltsalt$4689b112c4edeaa2064e6ce8edb444305737aff63cf363ffcdddc189537fe0a9",
		},
		{
			name:   "werkzeug style 8 char salt",
			pw:     "p1",
			digest: "pbkdf2:sha256:600000$AbCd1234$5e90e15cc12d1003be19fd2bcdbf784521a9cb4e9f613747bd34af4a4a5ad989",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Verify(tt.pw, tt.digest))
			assert.False(t, Verify(tt.pw+"x", tt.digest))
		})
	}
}

func TestVerifyMalformed(t *testing.T) {
	for _, digest := range []string{
		"",
		"plaintext",
		"pbkdf2:sha256:1000$saltsalt",
		"pbkdf2:md5:1000$saltsalt$00",
		"scrypt:32768:8:1$salt$00",
		"pbkdf2:sha256:abc$saltsalt$00",
		"pbkdf2:sha256:-1$saltsalt$00",
		"pbkdf2:sha256:1000$saltsalt$not-hex",
		"pbkdf2:sha256:1000$saltsalt$",
	} {
		assert.False(t, Verify("secret", digest), "digest %q", digest)
	}
}
