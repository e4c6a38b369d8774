package tracker

// Matcher decides whether a result is the completion of a pending job.
// The backend issues no job id at submission time, so the default matcher
// compares submitted content; a backend returning a real id only needs a
// new Matcher.
type Matcher interface {
	Matches(job PendingJob, result Result) bool
}

type MatcherFunc func(job PendingJob, result Result) bool

func (f MatcherFunc) Matches(job PendingJob, result Result) bool {
	return f(job, result)
}

// FingerprintMatcher matches when every fingerprint field is byte-equal to
// the field echoed in the result. Comparison is case and whitespace sensitive.
type FingerprintMatcher struct{}

func (FingerprintMatcher) Matches(job PendingJob, result Result) bool {
	if len(job.Fingerprint) == 0 {
		return false
	}
	for _, f := range job.Fingerprint {
		if result.Fields[f.Name] != f.Value {
			return false
		}
	}
	return true
}

type match struct {
	job    PendingJob
	result Result
}

// pair visits the jobs in the given order and gives each one the first
// result it matches. A result goes to at most one job and claimed results
// are skipped, so two jobs with the same fingerprint and a single result
// yield exactly one match. Results listed before a job was submitted are
// never offered to that job.
func pair(jobs []PendingJob, results []Result, claimed func(id string) bool, m Matcher) []match {
	taken := make(map[string]struct{})
	matches := []match{}
	for _, job := range jobs {
		for _, res := range results {
			if _, ok := taken[res.ID]; ok {
				continue
			}
			if claimed(res.ID) || job.Predates(res.ID) {
				continue
			}
			if m.Matches(job, res) {
				taken[res.ID] = struct{}{}
				matches = append(matches, match{job: job, result: res})
				break
			}
		}
	}
	return matches
}
