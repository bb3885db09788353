package httpclient

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// CoalesceKey derives the deduplication key for a request: method,
// normalized URL with sorted query parameters, and a body digest when
// one is present. Requests with the same key issued concurrently share
// one upstream call.
func CoalesceKey(method, rawURL string, body []byte) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return hashKey(method + "|" + rawURL + "|" + string(body))
	}

	params := u.Query()
	sorted := make([]string, 0, len(params))
	for key, values := range params {
		sort.Strings(values)
		for _, v := range values {
			sorted = append(sorted, key+"="+v)
		}
	}
	sort.Strings(sorted)

	parts := []string{
		method,
		u.Scheme + "://" + u.Host + u.Path,
		strings.Join(sorted, "&"),
	}
	if len(body) > 0 {
		digest := sha256.Sum256(body)
		parts = append(parts, hex.EncodeToString(digest[:]))
	}

	return hashKey(strings.Join(parts, "|"))
}

func hashKey(s string) string {
	digest := sha256.Sum256([]byte(s))
	return hex.EncodeToString(digest[:])
}
