package core

import "sort"

// HitCount tracks intersection outcomes for one category
type HitCount struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

// HitStats accumulates hit/miss counts per primitive category.
// It is owned by a single worker and merged with Merge once the worker is done;
// it is never shared between goroutines. The zero value is ready to use.
type HitStats struct {
	byCategory map[string]HitCount
}

// NewHitStats creates an empty counter set
func NewHitStats() *HitStats {
	return &HitStats{byCategory: make(map[string]HitCount)}
}

func (s *HitStats) init() {
	if s.byCategory == nil {
		s.byCategory = make(map[string]HitCount)
	}
}

// Hit records a successful intersection for category
func (s *HitStats) Hit(category string) {
	if s == nil {
		return
	}
	s.init()
	c := s.byCategory[category]
	c.Hits++
	s.byCategory[category] = c
}

// Miss records a failed intersection for category
func (s *HitStats) Miss(category string) {
	if s == nil {
		return
	}
	s.init()
	c := s.byCategory[category]
	c.Misses++
	s.byCategory[category] = c
}

// Merge adds all counts from other into s
func (s *HitStats) Merge(other *HitStats) {
	if s == nil || other == nil {
		return
	}
	s.init()
	for category, count := range other.byCategory {
		c := s.byCategory[category]
		c.Hits += count.Hits
		c.Misses += count.Misses
		s.byCategory[category] = c
	}
}

// Record returns the counts for category
func (s *HitStats) Record(category string) HitCount {
	if s == nil {
		return HitCount{}
	}
	return s.byCategory[category]
}

// Categories returns the recorded categories in sorted order
func (s *HitStats) Categories() []string {
	if s == nil {
		return nil
	}
	categories := make([]string, 0, len(s.byCategory))
	for category := range s.byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
