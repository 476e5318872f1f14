package wire

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Authenticator verifies the optional per-request HMAC field. It never
// panics on malformed input: every failure mode collapses to "not
// authenticated".
//
// Per the spec's byte-level variant, the HMAC is computed over the exact
// wire bytes of the frame with the `"hmac":"..."` member textually
// excised, sidestepping any re-serialisation/key-order hazard between
// client and server.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator returns an Authenticator for the given shared secret.
// A nil/empty secret means authentication is disabled; callers should
// skip Verify entirely in that case rather than relying on Verify's
// behavior, since an empty secret is never a meaningful HMAC key.
func NewAuthenticator(secret string) *Authenticator {
	if secret == "" {
		return nil
	}
	return &Authenticator{secret: []byte(secret)}
}

// Verify reports whether raw (a single frame's exact wire bytes, sans
// trailing newline) carries a valid HMAC for this authenticator's secret.
func (a *Authenticator) Verify(raw []byte) bool {
	if a == nil {
		return true
	}
	stripped, suppliedHex, ok := exciseHMACField(raw)
	if !ok {
		return false
	}
	supplied, err := hex.DecodeString(suppliedHex)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, a.secret)
	mac.Write(stripped)
	expected := mac.Sum(nil)
	if len(expected) != len(supplied) {
		return false
	}
	return subtle.ConstantTimeCompare(expected, supplied) == 1
}

// exciseHMACField scans raw for the first `"hmac":"<hex>"` member and
// returns raw with that member (and its leading or trailing comma)
// removed, along with the extracted hex string. Nesting depth is not
// checked: the first occurrence is taken, wherever it appears. It
// returns ok=false if no well-formed hmac string member is present.
func exciseHMACField(raw []byte) (stripped []byte, hexValue string, ok bool) {
	key := []byte(`"hmac"`)
	idx := bytes.Index(raw, key)
	if idx < 0 {
		return nil, "", false
	}
	i := idx + len(key)
	// optional whitespace then ':'
	for i < len(raw) && isJSONSpace(raw[i]) {
		i++
	}
	if i >= len(raw) || raw[i] != ':' {
		return nil, "", false
	}
	i++
	for i < len(raw) && isJSONSpace(raw[i]) {
		i++
	}
	if i >= len(raw) || raw[i] != '"' {
		return nil, "", false
	}
	valueStart := i
	i++
	for i < len(raw) && raw[i] != '"' {
		if raw[i] == '\\' {
			i++
		}
		i++
	}
	if i >= len(raw) {
		return nil, "", false
	}
	valueEnd := i + 1 // include closing quote
	hexValue = string(raw[valueStart+1 : i])

	memberStart := idx
	memberEnd := valueEnd

	// Absorb one adjacent comma so the remaining JSON stays syntactically
	// sane once the member is removed (either the comma before this
	// member, or the one after it, whichever exists).
	before := memberStart
	for before > 0 && isJSONSpace(raw[before-1]) {
		before--
	}
	if before > 0 && raw[before-1] == ',' {
		memberStart = before - 1
	} else {
		after := memberEnd
		for after < len(raw) && isJSONSpace(raw[after]) {
			after++
		}
		if after < len(raw) && raw[after] == ',' {
			memberEnd = after + 1
		}
	}

	out := make([]byte, 0, len(raw)-(memberEnd-memberStart))
	out = append(out, raw[:memberStart]...)
	out = append(out, raw[memberEnd:]...)
	return out, hexValue, true
}

func isJSONSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
