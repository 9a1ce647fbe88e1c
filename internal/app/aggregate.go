package app

import "sort"

// Aggregate merges contributors with the same login, summing their
// contributions. Result is sorted by contributions descending, then by login.
// Aggregating an aggregated list returns the same list.
func Aggregate(contributors []Contributor) []Contributor {
	totals := make(map[string]int, len(contributors))
	for _, c := range contributors {
		totals[c.Login] += c.Contributions
	}

	result := make([]Contributor, 0, len(totals))
	for login, contributions := range totals {
		result = append(result, Contributor{
			Login:         login,
			Contributions: contributions,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Contributions != result[j].Contributions {
			return result[i].Contributions > result[j].Contributions
		}
		return result[i].Login < result[j].Login
	})

	return result
}
