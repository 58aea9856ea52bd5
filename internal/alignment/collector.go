package alignment

// Collector accumulates the vowel segments of the current forced-alignment
// block.
type Collector struct {
	vowels []PendingVowel
}

// Add appends a segment
func (c *Collector) Add(v PendingVowel) {
	c.vowels = append(c.vowels, v)
}

// Reset drops everything collected so far
func (c *Collector) Reset() {
	c.vowels = nil
}

// Len returns the number of collected segments
func (c *Collector) Len() int {
	return len(c.vowels)
}

// Vowels returns a copy of the collected segments
func (c *Collector) Vowels() []PendingVowel {
	out := make([]PendingVowel, len(c.vowels))
	copy(out, c.vowels)
	return out
}
