package filters

import (
	ahocorasick "github.com/BobuSumisu/aho-corasick"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultSessionEntries = 16

// Session owns resources that are expensive to build and shared by the
// filters of one scan, such as compiled word-list automata. Nothing is cached
// beyond the session's lifetime.
type Session struct {
	tries *lru.Cache[string, *ahocorasick.Trie]
}

// NewSession returns a session caching at most size automata. A size below
// one selects the default.
func NewSession(size int) (*Session, error) {
	if size < 1 {
		size = defaultSessionEntries
	}
	c, err := lru.New[string, *ahocorasick.Trie](size)
	if err != nil {
		return nil, err
	}
	return &Session{tries: c}, nil
}

// Trie returns the automaton cached under key, building it on a miss.
func (s *Session) Trie(key string, build func() *ahocorasick.Trie) *ahocorasick.Trie {
	if s == nil || s.tries == nil {
		return build()
	}
	if t, ok := s.tries.Get(key); ok {
		return t
	}
	t := build()
	s.tries.Add(key, t)
	return t
}

// Len reports how many automata the session currently holds.
func (s *Session) Len() int {
	if s == nil || s.tries == nil {
		return 0
	}
	return s.tries.Len()
}
