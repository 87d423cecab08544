package domain

import "sort"

// DiffResult partitions source identifiers by what a run must do with
// them. The slices are sorted so callers get deterministic order.
type DiffResult struct {
	// New holds sources present in the corpus but not in the index.
	New []string

	// Unchanged holds sources present in both; they are skipped.
	Unchanged []string

	// Deleted holds sources present in the index but no longer in the
	// corpus.
	Deleted []string

	// Updated holds sources present in both whose content fingerprint
	// differs. Only populated when both sides carry fingerprints;
	// with fingerprinting disabled these land in Unchanged.
	Updated []string
}

// Reconcile computes the three-way diff between the corpus scan and
// the index snapshot. Both inputs map source identifier to content
// fingerprint; an empty fingerprint means "unknown" and disables the
// Updated classification for that source.
//
// Presence alone decides New versus Unchanged: a file whose content
// changed but whose path did not is Unchanged unless fingerprints say
// otherwise. Reconcile is pure; it never touches the filesystem or
// the backend.
func Reconcile(corpus, index map[string]string) DiffResult {
	var d DiffResult

	for path, fp := range corpus {
		indexFP, ok := index[path]
		switch {
		case !ok:
			d.New = append(d.New, path)
		case fp != "" && indexFP != "" && fp != indexFP:
			d.Updated = append(d.Updated, path)
		default:
			d.Unchanged = append(d.Unchanged, path)
		}
	}

	for path := range index {
		if _, ok := corpus[path]; !ok {
			d.Deleted = append(d.Deleted, path)
		}
	}

	sort.Strings(d.New)
	sort.Strings(d.Unchanged)
	sort.Strings(d.Deleted)
	sort.Strings(d.Updated)

	return d
}
