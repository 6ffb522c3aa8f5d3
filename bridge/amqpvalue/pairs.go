package amqpvalue

import "sort"

// pairs is an indexable string-keyed map.
type pairs struct {
	keys   []string
	values []any
	index  map[string]int
}

func newPairs(n int) *pairs {
	return &pairs{
		keys:   make([]string, 0, n),
		values: make([]any, 0, n),
		index:  make(map[string]int, n),
	}
}

// pairsFromMap orders the keys of m so that indexes are stable.
func pairsFromMap(m map[string]any) *pairs {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	p := newPairs(len(keys))
	for _, k := range keys {
		p.set(k, m[k])
	}
	return p
}

func (p *pairs) set(k string, v any) {
	if i, ok := p.index[k]; ok {
		p.values[i] = v
		return
	}
	p.index[k] = len(p.keys)
	p.keys = append(p.keys, k)
	p.values = append(p.values, v)
}

func (p *pairs) at(i int) (string, any) {
	return p.keys[i], p.values[i]
}

func (p *pairs) len() int {
	return len(p.keys)
}

func (p *pairs) clone() *pairs {
	c := newPairs(p.len())
	for i, k := range p.keys {
		c.set(k, p.values[i])
	}
	return c
}

func (p *pairs) toMap() map[string]any {
	m := make(map[string]any, len(p.keys))
	for i, k := range p.keys {
		m[k] = p.values[i]
	}
	return m
}
