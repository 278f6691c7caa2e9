package facts

// Delta is the outcome of diffing two generations of facts for the same
// boundary by identity.
type Delta struct {
	Added    []Fact
	Removed  []Fact
	Modified []Fact
}

func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// Merge folds another delta into this one. Used when one edit touches
// several boundaries and the caller wants a single combined delta.
func (d *Delta) Merge(other Delta) {
	d.Added = append(d.Added, other.Added...)
	d.Removed = append(d.Removed, other.Removed...)
	d.Modified = append(d.Modified, other.Modified...)
}

// Diff compares old and new fact sets by identity. Identities only in the
// new set are added, identities only in the old set are removed, and shared
// identities with differing payloads are modified (the new fact is
// reported). Identical facts are omitted entirely.
func Diff(old, new []Fact) Delta {
	oldByID := make(map[Identity]Fact, len(old))
	for _, f := range old {
		oldByID[f.Identity] = f
	}

	var delta Delta
	seen := make(map[Identity]bool, len(new))
	for _, f := range new {
		seen[f.Identity] = true
		prev, ok := oldByID[f.Identity]
		switch {
		case !ok:
			delta.Added = append(delta.Added, f)
		case prev.Payload != f.Payload:
			delta.Modified = append(delta.Modified, f)
		}
	}
	for _, f := range old {
		if !seen[f.Identity] {
			delta.Removed = append(delta.Removed, f)
		}
	}
	return delta
}
