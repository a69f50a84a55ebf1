package predict

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strings"
)

// Param is one query parameter.
type Param struct {
	Key   string
	Value string
}

// Query is an ordered list of query parameters. Keys may repeat.
type Query []Param

func (q *Query) add(key, value string) {
	*q = append(*q, Param{Key: key, Value: value})
}

// Get returns the first value for key.
func (q Query) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// All returns every value for key in order.
func (q Query) All(key string) []string {
	var out []string
	for _, p := range q {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return out
}

// Keys returns the parameter keys in order.
func (q Query) Keys() []string {
	out := make([]string, 0, len(q))
	for _, p := range q {
		out = append(out, p.Key)
	}
	return out
}

// Encode renders the query in order, without a leading "?".
func (q Query) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// marshalJSON encodes v without HTML escaping so that category paths like
// "a > b" reach the server unchanged.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// EmailHash returns the customer email fingerprint sent as "eh": the first
// 16 hex characters of the SHA-1 of the trimmed, lower-cased address,
// followed by "1".
func EmailHash(email string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])[:16] + "1"
}
