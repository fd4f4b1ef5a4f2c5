// Package report rolls marking and moderation results up into the summary an
// assignment page shows.
package report

import (
	"math"

	"github.com/modmark-app/modmark/internal/marking"
	"github.com/modmark-app/modmark/internal/moderation"
	"github.com/modmark-app/modmark/internal/rubric"
)

type Stats struct {
	TotalSubmissions int     `json:"total_submissions"`
	AverageScorePct  float64 `json:"average_score_percent"`
	WithinDeviation  int     `json:"within_deviation_count"`
	OutsideDeviation int     `json:"outside_deviation_count"`
	OpenFlags        int     `json:"open_flags_count"`
}

// Aggregate computes assignment-level summary statistics. No marks yet is a
// valid zero state, not an error. at_threshold and undetermined
// classifications count toward neither deviation tally.
func Aggregate(
	criteria []rubric.Criterion,
	subs []marking.Submission,
	marks []marking.Mark,
	markerIDs []string,
	standardMarkerID string,
) Stats {
	stats := Stats{TotalSubmissions: len(subs)}
	if len(marks) == 0 {
		stats.OpenFlags = openFlags(criteria, subs, marks, markerIDs)
		return stats
	}

	var maxSum float64
	for _, c := range criteria {
		maxSum += c.MaxMarks
	}
	if maxSum > 0 {
		var scoreSum float64
		for _, m := range marks {
			scoreSum += float64(m.Score)
		}
		mean := scoreSum / float64(len(marks))
		stats.AverageScorePct = round1(mean / maxSum * 100)
	}

	bySub := map[string][]marking.Mark{}
	for _, m := range marks {
		bySub[m.SubmissionID] = append(bySub[m.SubmissionID], m)
	}
	for _, sub := range subs {
		for _, cc := range moderation.Compare(criteria, bySub[sub.ID], standardMarkerID) {
			for _, ms := range cc.MarkerScores {
				switch ms.Classification {
				case moderation.ClassWithin:
					stats.WithinDeviation++
				case moderation.ClassOutside:
					stats.OutsideDeviation++
				}
			}
		}
	}

	stats.OpenFlags = openFlags(criteria, subs, marks, markerIDs)
	return stats
}

// openFlags counts markers who have not yet scored every (submission,
// criterion) pair, floored at zero.
func openFlags(criteria []rubric.Criterion, subs []marking.Submission, marks []marking.Mark, markerIDs []string) int {
	need := len(criteria) * len(subs)
	if need == 0 {
		return 0
	}
	done := map[string]int{}
	for _, m := range marks {
		done[m.MarkerID]++
	}
	completed := 0
	for _, id := range markerIDs {
		if done[id] >= need {
			completed++
		}
	}
	open := len(markerIDs) - completed
	if open < 0 {
		return 0
	}
	return open
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
