package curl

import (
	"net/url"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/hitpost/packages/form"
)

// urlencodedPair reads a --data-urlencode argument. "name=content" keeps the
// name; a bare "content" or "=content" has an empty name.
func urlencodedPair(arg string) form.Pair {
	name, content, ok := strings.Cut(arg, "=")
	if !ok {
		return form.Pair{Value: arg}
	}
	return form.Pair{Key: name, Value: content}
}

// joinPairs renders pairs as a body the form codec decodes back to the same
// pairs. Spaces become %20 since the codec keeps '+' literal.
func joinPairs(pairs []form.Pair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, escape(p.Key)+"="+escape(p.Value))
	}
	return strings.Join(parts, "&")
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func setDefaultHeader(headers map[string]string, key, value string) {
	for k := range headers {
		if strings.EqualFold(k, key) {
			return
		}
	}
	headers[key] = value
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
