package poker

import "fmt"

// Binomial returns n choose k, or 0 when k is out of range.
func Binomial(n, k int) uint64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := uint64(1)
	for i := 1; i <= k; i++ {
		r = r * uint64(n-k+i) / uint64(i)
	}
	return r
}

// Combinator walks the k-element index combinations of n items in
// lexicographic order.
type Combinator struct {
	n, k    int
	idx     []int
	pending bool // idx holds a combination not yet returned by Next
	done    bool
}

// NewCombinator creates a combinator positioned before the first combination.
func NewCombinator(n, k int) *Combinator {
	c := &Combinator{n: n, k: k}
	if k < 0 || k > n {
		c.done = true
		return c
	}
	c.idx = make([]int, k)
	for i := range c.idx {
		c.idx[i] = i
	}
	c.pending = true
	return c
}

// Next advances to the next combination and reports whether one exists.
func (c *Combinator) Next() bool {
	if c.done {
		return false
	}
	if c.pending {
		c.pending = false
		return true
	}
	i := c.k - 1
	for i >= 0 && c.idx[i] == c.n-c.k+i {
		i--
	}
	if i < 0 {
		c.done = true
		return false
	}
	c.idx[i]++
	for j := i + 1; j < c.k; j++ {
		c.idx[j] = c.idx[j-1] + 1
	}
	return true
}

// Indices returns the current combination. The slice is reused by Next.
func (c *Combinator) Indices() []int {
	return c.idx
}

// Seek positions the combinator so the following Next yields the
// combination of lexicographic rank r (zero based). Seeking to the total
// count leaves the combinator exhausted.
func (c *Combinator) Seek(r uint64) error {
	total := Binomial(c.n, c.k)
	if c.k < 0 || c.k > c.n || r > total {
		return fmt.Errorf("seek %d out of range for C(%d,%d)=%d", r, c.n, c.k, total)
	}
	if r == total {
		c.pending = false
		c.done = true
		return nil
	}
	v := 0
	for i := 0; i < c.k; i++ {
		for {
			// combinations with idx[i]=v and the remaining positions above v
			cnt := Binomial(c.n-1-v, c.k-1-i)
			if r < cnt {
				break
			}
			r -= cnt
			v++
		}
		c.idx[i] = v
		v++
	}
	c.pending = true
	c.done = false
	return nil
}

// ForEachCombination calls fn with each k-of-n index combination in
// lexicographic order until fn returns false. fn must not retain idx.
func ForEachCombination(n, k int, fn func(idx []int) bool) {
	c := NewCombinator(n, k)
	for c.Next() {
		if !fn(c.Indices()) {
			return
		}
	}
}
