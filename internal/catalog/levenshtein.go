package catalog

// DamerauLevenshteinDistance calculates the minimum number of single-character
// edits (insertions, deletions, substitutions, or transpositions of two
// adjacent characters) required to change one string into another. Pure
// function; used as the last resolution pass for one-character typos in
// institution names.
func DamerauLevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Runes for proper Unicode handling; the full matrix is needed for the
	// transposition check.
	runesA := []rune(a)
	runesB := []rune(b)
	lenA := len(runesA)
	lenB := len(runesB)

	d := make([][]int, lenA+1)
	for i := range d {
		d[i] = make([]int, lenB+1)
		d[i][0] = i
	}
	for j := 0; j <= lenB; j++ {
		d[0][j] = j
	}

	for i := 1; i <= lenA; i++ {
		for j := 1; j <= lenB; j++ {
			cost := 0
			if runesA[i-1] != runesB[j-1] {
				cost = 1
			}

			d[i][j] = minThree(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)

			if i > 1 && j > 1 &&
				runesA[i-1] == runesB[j-2] &&
				runesA[i-2] == runesB[j-1] {
				if t := d[i-2][j-2] + cost; t < d[i][j] {
					d[i][j] = t // transposition
				}
			}
		}
	}

	return d[lenA][lenB]
}

func minThree(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
