package services

import "strings"

// stopWords are dropped from global search queries; on their own they would
// match nearly every listing description.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an and are as at be but by for from has have i in is it its
		of on or so that the this to was were will with want need looking sale sell selling buy car cars`) {
		stopWords[w] = struct{}{}
	}
}

// Keywords splits a free-text query on whitespace and drops stop words,
// compared case-insensitively. The surviving words keep their original case.
func Keywords(query string) []string {
	var out []string
	for _, w := range strings.Fields(query) {
		if _, stop := stopWords[strings.ToLower(w)]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}
