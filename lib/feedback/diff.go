package feedback

type Change struct {
	Field Field
	Old   string
	New   string
}

// Diff compares the stored representations of every field, so "1,234" and
// "1234" count as different values. Changes are returned in field order.
func Diff(old, new Record) []Change {
	var changes []Change
	for _, f := range Fields {
		o := old.Get(f)
		n := new.Get(f)
		if o == n {
			continue
		}
		changes = append(changes, Change{Field: f, Old: o, New: n})
	}
	return changes
}
