package issuecorrelation

// Finding describes the minimal metadata required to correlate findings of
// two report runs.
type Finding struct {
	RuleID       string
	Path         string
	StartLine    int
	EndLine      int
	InstanceHash string
}

// Match groups a known finding with the current findings that correlate to it.
type Match struct {
	Known   Finding
	Current []Finding
}

// Correlator computes correlations between the findings of the current run and
// the findings of a baseline run. Use NewCorrelator and call Process(); after
// that Matches(), UnmatchedCurrent() and UnmatchedKnown() expose the result.
// Relationships are many-to-many.
type Correlator struct {
	Current []Finding
	Known   []Finding

	knownToCurrent map[int][]int
	currentToKnown map[int][]int

	processed bool
}

// NewCorrelator constructs a Correlator. It is inert until Process() is called.
func NewCorrelator(current, known []Finding) *Correlator {
	return &Correlator{
		Current: current,
		Known:   known,
	}
}

// Process computes correlations using four ordered stages. A finding matched
// in an earlier stage is excluded from later stages:
// 1) rule+path+startline+endline+hash
// 2) rule+path+hash
// 3) rule+path+startline+endline
// 4) rule+path+startline
// Process is idempotent.
func (c *Correlator) Process() {
	if c.processed {
		return
	}
	c.knownToCurrent = make(map[int][]int)
	c.currentToKnown = make(map[int][]int)

	matchedKnown := make(map[int]bool)
	matchedCurrent := make(map[int]bool)

	for stage := 1; stage <= 4; stage++ {
		matchedKnownThis := make(map[int]bool)
		matchedCurrentThis := make(map[int]bool)

		for ki, k := range c.Known {
			if matchedKnown[ki] {
				continue
			}
			for ci, n := range c.Current {
				if matchedCurrent[ci] {
					continue
				}

				if matchStage(k, n, stage) {
					c.knownToCurrent[ki] = append(c.knownToCurrent[ki], ci)
					c.currentToKnown[ci] = append(c.currentToKnown[ci], ki)
					matchedKnownThis[ki] = true
					matchedCurrentThis[ci] = true
				}
			}
		}

		// multiple matches within one stage are allowed, later stages skip them
		for ki := range matchedKnownThis {
			matchedKnown[ki] = true
		}
		for ci := range matchedCurrentThis {
			matchedCurrent[ci] = true
		}
	}

	c.processed = true
}

// matchStage applies the rules of stage to a pair of findings. Rule id and path
// must be present and equal for every stage; hash stages need a non-empty hash.
func matchStage(a, b Finding, stage int) bool {
	if a.RuleID == "" || b.RuleID == "" {
		return false
	}
	if a.RuleID != b.RuleID || a.Path != b.Path {
		return false
	}

	switch stage {
	case 1:
		return a.InstanceHash != "" && a.StartLine == b.StartLine && a.EndLine == b.EndLine && a.InstanceHash == b.InstanceHash
	case 2:
		return a.InstanceHash != "" && a.InstanceHash == b.InstanceHash
	case 3:
		return a.StartLine == b.StartLine && a.EndLine == b.EndLine
	case 4:
		return a.StartLine == b.StartLine
	default:
		return false
	}
}

// UnmatchedCurrent returns current findings without a known counterpart.
func (c *Correlator) UnmatchedCurrent() []Finding {
	if !c.processed {
		c.Process()
	}

	var out []Finding
	for ci, n := range c.Current {
		if len(c.currentToKnown[ci]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// UnmatchedKnown returns known findings that are absent from the current run.
func (c *Correlator) UnmatchedKnown() []Finding {
	if !c.processed {
		c.Process()
	}

	var out []Finding
	for ki, k := range c.Known {
		if len(c.knownToCurrent[ki]) == 0 {
			out = append(out, k)
		}
	}
	return out
}

// Matches returns one Match per known finding that correlated with at least
// one current finding, in known order.
func (c *Correlator) Matches() []Match {
	if !c.processed {
		c.Process()
	}

	var out []Match
	for ki := range c.Known {
		idxs := c.knownToCurrent[ki]
		if len(idxs) == 0 {
			continue
		}
		m := Match{Known: c.Known[ki], Current: make([]Finding, 0, len(idxs))}
		for _, ci := range idxs {
			m.Current = append(m.Current, c.Current[ci])
		}
		out = append(out, m)
	}
	return out
}

// Summary is the serialisable outcome of a baseline comparison.
type Summary struct {
	New       int      `json:"new"`
	Known     int      `json:"known"`
	Resolved  int      `json:"resolved"`
	NewHashes []string `json:"new_hashes"`
}

// Summarize processes c and counts new, known and resolved findings.
func (c *Correlator) Summarize() *Summary {
	unmatched := c.UnmatchedCurrent()
	s := &Summary{
		New:       len(unmatched),
		Known:     len(c.Current) - len(unmatched),
		Resolved:  len(c.UnmatchedKnown()),
		NewHashes: make([]string, 0, len(unmatched)),
	}
	for _, f := range unmatched {
		s.NewHashes = append(s.NewHashes, f.InstanceHash)
	}
	return s
}
