package crawler

// Output is the result of a crawl: Paths, Counts or Groups depending on the
// configured output mode.
type Output interface {
	// Len reports the number of results held.
	Len() int
}

// Paths lists accepted entries in discovery order.
type Paths []string

func (p Paths) Len() int { return len(p) }

// Counts tallies accepted files and walked directories below the root.
type Counts struct {
	Files       int `json:"files"`
	Directories int `json:"directories"`
}

func (c Counts) Len() int { return c.Files + c.Directories }

// Group holds the files found directly inside one directory.
type Group struct {
	Directory string   `json:"directory"`
	Files     []string `json:"files"`
}

// Groups lists one Group per walked directory with at least one file.
type Groups []Group

func (g Groups) Len() int { return len(g) }

// reporters build the Output from a finished walker state.

func reportPaths(st *walkerState) Output {
	if st.paths == nil {
		return Paths{}
	}
	return Paths(st.paths)
}

func reportCounts(st *walkerState) Output {
	return st.counts
}

func reportGroups(st *walkerState) Output {
	groups := make(Groups, 0, len(st.groups))
	for _, g := range st.groups {
		if len(g.Files) == 0 {
			continue
		}
		groups = append(groups, *g)
	}
	return groups
}
