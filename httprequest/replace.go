package httprequest

import (
	"net/url"
	"sort"
	"strings"

	"github.com/chincoe/chayns-helper-sub000/host"
)

// resolveAddress joins a relative address to the default address. Absolute
// addresses and an empty base are returned unchanged.
func resolveAddress(base, address string) string {
	if base == "" {
		return address
	}
	if u, err := url.Parse(address); err == nil && u.IsAbs() {
		return address
	}
	if address == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(address, "/")
}

// replacePlaceholders substitutes the host environment tokens
// (##siteId##, ##tappId##, ...) in address.
func replacePlaceholders(address string, env host.Env) string {
	if !strings.Contains(address, "##") {
		return address
	}

	placeholders := env.Placeholders()
	tokens := make([]string, 0, len(placeholders))
	for token := range placeholders {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	pairs := make([]string, 0, 2*len(tokens))
	for _, token := range tokens {
		pairs = append(pairs, token, placeholders[token])
	}
	return strings.NewReplacer(pairs...).Replace(address)
}

// applyReplacements applies the option replacements in order: literal keys
// replace every occurrence, regex keys go through ReplaceAllString so $1
// style references work.
func applyReplacements(address string, replacements *PatternMap[string]) string {
	if replacements == nil {
		return address
	}
	for _, e := range replacements.entries {
		if e.key.re != nil {
			address = e.key.re.ReplaceAllString(address, e.value)
			continue
		}
		if e.key.raw != "" {
			address = strings.ReplaceAll(address, e.key.raw, e.value)
		}
	}
	return address
}
