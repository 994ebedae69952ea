// Package coverage picks the small set of boundary files that together
// carry as many of the requested names as possible.
//
// The search is greedy: each round commits the file that supplies the most
// still-unmatched names, preferring smaller files on ties, until MaxFiles
// files are chosen or no file can supply anything new.
package coverage

import "sort"

const MaxFiles = 3

type Candidate struct {
	File    int
	Feature string
}

// Match binds a name to a file ordinal local to the Result.
type Match struct {
	File    int
	Feature string
}

type Result struct {
	// Files holds catalog file indexes; a file's position is its ordinal.
	Files     []int
	Matches   map[string]Match
	Unmatched []string
}

type Options struct {
	// MaxFiles caps the number of chosen files; <= 0 means MaxFiles.
	MaxFiles int
	// Seed files are committed first, in order, and count against the cap.
	Seed []int
	// Size reports a file's approximate size for tie breaks; nil treats all
	// files as equal.
	Size func(file int) int64
}

// Search covers names using cands (name -> files that carry it). Names with
// no candidate, or whose candidates were never chosen, end up in Unmatched
// in input order. Duplicate names are matched once.
func Search(names []string, cands map[string][]Candidate, opts Options) Result {
	limit := opts.MaxFiles
	if limit <= 0 {
		limit = MaxFiles
	}
	size := opts.Size
	if size == nil {
		size = func(int) int64 { return 0 }
	}

	order := uniq(names)
	res := Result{Matches: make(map[string]Match, len(order))}
	chosen := map[int]int{}

	commit := func(file int) {
		ord := len(res.Files)
		chosen[file] = ord
		res.Files = append(res.Files, file)
		for _, n := range order {
			if _, done := res.Matches[n]; done {
				continue
			}
			for _, c := range cands[n] {
				if c.File == file {
					res.Matches[n] = Match{File: ord, Feature: c.Feature}
					break
				}
			}
		}
	}

	for _, f := range opts.Seed {
		if len(res.Files) >= limit {
			break
		}
		if _, dup := chosen[f]; dup {
			continue
		}
		commit(f)
	}

	for len(res.Files) < limit {
		counts := map[int]int{}
		for _, n := range order {
			if _, done := res.Matches[n]; done {
				continue
			}
			for _, c := range cands[n] {
				if _, used := chosen[c.File]; used {
					continue
				}
				counts[c.File]++
			}
		}
		best, ok := pick(counts, size)
		if !ok {
			break
		}
		commit(best)
	}

	for _, n := range order {
		if _, ok := res.Matches[n]; !ok {
			res.Unmatched = append(res.Unmatched, n)
		}
	}
	return res
}

// pick returns the file with the highest count, then smallest size, then
// lowest index.
func pick(counts map[int]int, size func(int) int64) (int, bool) {
	if len(counts) == 0 {
		return 0, false
	}
	files := make([]int, 0, len(counts))
	for f, n := range counts {
		if n > 0 {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return 0, false
	}
	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if sa, sb := size(a), size(b); sa != sb {
			return sa < sb
		}
		return a < b
	})
	return files[0], true
}

func uniq(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
