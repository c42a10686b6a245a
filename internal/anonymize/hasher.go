package anonymize

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Hasher derives one-way identifiers with an HMAC keyed by a deployment
// secret. Without the key the hashes cannot be linked back to the inputs,
// which a plain unkeyed hash would not guarantee against dictionary attacks.
type Hasher struct {
	key []byte
}

// NewHasher creates a Hasher. The secret must not be empty.
func NewHasher(secret string) *Hasher {
	if secret == "" {
		panic("anonymize: hashing secret cannot be empty")
	}
	return &Hasher{key: []byte(secret)}
}

// HashID returns the anonymized form of a user or pattern identifier. The
// output is prefixed so anonymized ids can never collide with raw ones.
func (h *Hasher) HashID(id string) string {
	return "anon_" + h.digest("id:"+id)[:32]
}

// HashField hashes a named context field. The field name is mixed into the
// digest so equal values in different fields do not produce equal hashes.
func (h *Hasher) HashField(field, value string) string {
	return h.digest(field + ":" + value)[:16]
}

func (h *Hasher) digest(input string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(input))
	return hex.EncodeToString(mac.Sum(nil))
}
