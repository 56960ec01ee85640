package transliteration

import "unicode/utf8"

// trieNode represents a node in the prefix tree.
type trieNode struct {
	children map[rune]*trieNode
	value    string // The Arabic glyph if this node ends a cluster.
	key      string
}

// Trie is a prefix tree from Latin clusters to Arabic glyphs.
type Trie struct {
	root *trieNode
}

func newTrie() *Trie {
	return &Trie{root: &trieNode{children: make(map[rune]*trieNode)}}
}

// Insert adds a key-value pair to the trie.
func (t *Trie) Insert(key, value string) {
	node := t.root
	for _, r := range key {
		if _, ok := node.children[r]; !ok {
			node.children[r] = &trieNode{children: make(map[rune]*trieNode)}
		}
		node = node.children[r]
	}
	node.value = value
	node.key = key
}

// FindLongestPrefix finds the longest registered cluster that is a prefix of s.
// It returns the cluster and its length in bytes, or ("", 0).
func (t *Trie) FindLongestPrefix(s string) (key string, length int) {
	node := t.root
	for i, r := range s {
		child, ok := node.children[r]
		if !ok {
			break
		}
		node = child
		if node.value != "" {
			key = node.key
			length = i + utf8.RuneLen(r)
		}
	}
	return key, length
}

func buildTrieFromMap(m map[string]string) *Trie {
	trie := newTrie()
	for k, v := range m {
		trie.Insert(k, v)
	}
	return trie
}
