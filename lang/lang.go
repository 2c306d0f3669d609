// Package lang holds the primitives every Gojure value relies on: keywords,
// symbols, and the hash-consistent equality used by the persistent collections.
package lang

type Keyword string

func (k Keyword) String() string {
	return ":" + string(k)
}

// Hash is seeded differently from string hashing, so that a keyword and a
// string of the same name land in different trie slots.
func (k Keyword) Hash() uint32 {
	return hashString(keywordSeed, string(k))
}

type Symbol struct {
	NS   string
	Name string
}

func (s Symbol) String() string {
	if s.NS != "" {
		return s.NS + "/" + s.Name
	}
	return s.Name
}

func (s Symbol) Hash() uint32 {
	return HashCombine(hashString(symbolSeed, s.Name), hashString(symbolSeed, s.NS))
}
