/*
Package ranking scores and ranks a cohort of workers over a period.

PURPOSE:
  Folds each worker's DailyStats into totals, normalizes them against the
  cohort's best values and combines the three components into a 0-100 score:

    overtime   = totalNetOvertime / maxNetOvertime   * weights.Overtime   (80)
    commitment = totalWorkedMinutes / maxWorkedMinutes * weights.Commitment (10)
    absence    = daysPresent / maxDaysPresent          * weights.Absence    (10)
    score      = round(clamp(overtime + commitment + absence - penalty, 0, 100))

  penalty is unexcused absences times the worker's own branch penalty value.
  Maxima are floored at 1, so an all-zero cohort scores zero instead of
  dividing by zero.

COHORT:
  Management roles (owner, general manager, line manager, branch office
  manager) are not ranked and do not influence the maxima.

EXCLUSIONS:
  under_review days contribute to nothing, including the working-day count.
  Records that cannot be computed are skipped and returned as failures; the
  worker is still ranked on the remaining days.
*/
package ranking

import (
	"math"
	"sort"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/employee"
	"github.com/warp/attendance-engine/schedule"
)

// Input is one ranking request.
type Input struct {
	Workers  []employee.Worker
	Records  []attendance.Record
	Period   calendar.Period
	Settings *schedule.Settings // nil means defaults
	Holidays calendar.Holidays
}

// Result carries the ranked scores and everything that was skipped.
type Result struct {
	Scores   []EmployeeScore      `json:"scores"`
	Failures []attendance.Failure `json:"-"`
}

// EmployeeScore is one worker's standing for the period.
type EmployeeScore struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`

	Score int `json:"score"`

	// Weighted components, on the 100-point scale.
	OvertimeScore   float64 `json:"overtime_score"`
	CommitmentScore float64 `json:"commitment_score"`
	AbsenceScore    float64 `json:"absence_score"`

	// Display percentages: each component over its own weight, 0-100.
	OvertimePercent   float64 `json:"overtime_percent"`
	CommitmentPercent float64 `json:"commitment_percent"`
	AbsencePercent    float64 `json:"absence_percent"`

	TotalNetOvertime   int `json:"total_net_overtime"`
	TotalRawOvertime   int `json:"total_raw_overtime"`
	TotalDelay         int `json:"total_delay"`
	TotalWorkedMinutes int `json:"total_worked_minutes"`
	WorkingDays        int `json:"working_days"`
	DaysPresent        int `json:"days_present"`
	UnexcusedAbsences  int `json:"unexcused_absences"`
	AuthorizedLeaves   int `json:"authorized_leaves"`

	PenaltyPoints float64 `json:"penalty_points"`

	Rank             int `json:"rank"`
	PointsToNextRank int `json:"points_to_next_rank"`
}

// Rank scores every rankable worker. The only error is an invalid period;
// per-record and per-worker problems are reported in Result.Failures.
func Rank(in Input) (Result, error) {
	if err := in.Period.Validate(); err != nil {
		return Result{}, err
	}
	settings := in.Settings
	if settings == nil {
		settings = schedule.DefaultSettings()
	}

	ix, indexFailures := attendance.NewIndex(in.Records)

	var (
		tallies  []*tally
		failures []attendance.Failure
		cohort   = make(map[string]bool)
	)
	for _, w := range in.Workers {
		if err := w.Validate(); err != nil {
			failures = append(failures, attendance.Failure{EmployeeID: w.ID, Err: err})
			continue
		}
		if !w.Role.IsRankable() {
			continue
		}
		cohort[w.ID] = true

		t, fs := fold(w, settings.For(w.Branch), in.Period, in.Holidays, ix)
		tallies = append(tallies, t)
		failures = append(failures, fs...)
	}
	for _, f := range indexFailures {
		if cohort[f.EmployeeID] {
			failures = append(failures, f)
		}
	}

	scores := score(tallies, settings.Weights)
	attendance.SortFailures(failures)
	return Result{Scores: scores, Failures: failures}, nil
}

// =============================================================================
// SCORING
// =============================================================================

func score(tallies []*tally, w schedule.Weights) []EmployeeScore {
	maxNet, maxWorked, maxPresent := 1, 1, 1
	for _, t := range tallies {
		maxNet = max(maxNet, t.netOvertime)
		maxWorked = max(maxWorked, t.worked)
		maxPresent = max(maxPresent, t.present)
	}

	scores := make([]EmployeeScore, 0, len(tallies))
	for _, t := range tallies {
		overtime := float64(t.netOvertime) / float64(maxNet) * w.Overtime
		commitment := float64(t.worked) / float64(maxWorked) * w.Commitment
		absence := float64(t.present) / float64(maxPresent) * w.Absence
		penalty := float64(t.unexcused) * t.penaltyValue

		total := overtime + commitment + absence - penalty

		scores = append(scores, EmployeeScore{
			EmployeeID:         t.worker.ID,
			Name:               t.worker.Name,
			Score:              int(math.Round(clamp(total, 0, 100))),
			OvertimeScore:      overtime,
			CommitmentScore:    commitment,
			AbsenceScore:       absence,
			OvertimePercent:    percentOf(overtime, w.Overtime),
			CommitmentPercent:  percentOf(commitment, w.Commitment),
			AbsencePercent:     percentOf(absence, w.Absence),
			TotalNetOvertime:   t.netOvertime,
			TotalRawOvertime:   t.rawOvertime,
			TotalDelay:         t.delay,
			TotalWorkedMinutes: t.worked,
			WorkingDays:        t.workingDays,
			DaysPresent:        t.present,
			UnexcusedAbsences:  t.unexcused,
			AuthorizedLeaves:   t.leaves,
			PenaltyPoints:      penalty,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TotalNetOvertime != b.TotalNetOvertime {
			return a.TotalNetOvertime > b.TotalNetOvertime
		}
		return a.EmployeeID < b.EmployeeID
	})

	for i := range scores {
		scores[i].Rank = i + 1
		if i > 0 {
			scores[i].PointsToNextRank = scores[i-1].Score - scores[i].Score + 1
		}
	}
	return scores
}

func percentOf(component, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	return math.Round(component / weight * 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
