package domain

import (
	"fmt"
	"time"
)

const DefaultReportErrorCap = 50

// RunReport 一次调度的汇总报告
type RunReport struct {
	Target       Bucket    `json:"target"`
	ReferenceAt  time.Time `json:"referenceAt"`
	DryRun       bool      `json:"dryRun"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	Pages        int       `json:"pages"`
	Total        int       `json:"total"`
	Matched      int       `json:"matched"`
	Attempted    int       `json:"attempted"`
	Succeeded    int       `json:"succeeded"`
	Skipped      int       `json:"skippedNotWindow"`
	Failed       int       `json:"failed"`
	NoPreference int       `json:"noPreference"`
	NoContent    int       `json:"noContent"`
	PrunedTokens int       `json:"prunedTokens"`
	Errors       []string  `json:"errors"`
	// ErrorsTruncated 错误超过上限后被丢弃的条数
	ErrorsTruncated int    `json:"errorsTruncated"`
	Aborted         string `json:"aborted,omitempty"`

	errorCap int
}

func NewRunReport(target Bucket, ref time.Time, dryRun bool, startedAt time.Time, errorCap int) RunReport {
	if errorCap <= 0 {
		errorCap = DefaultReportErrorCap
	}
	return RunReport{
		Target:      target,
		ReferenceAt: ref,
		DryRun:      dryRun,
		StartedAt:   startedAt,
		errorCap:    errorCap,
	}
}

// Add 把一个会员的结果累加进报告
func (r *RunReport) Add(res MemberResult) {
	r.Total++
	if res.IsSendTimeWindow() {
		r.Matched++
	}
	if res.Attempted() {
		r.Attempted++
	}
	switch {
	case res.Kind == ResultNoWindow:
		r.Skipped++
	case res.Kind == ResultNoPreference:
		r.NoPreference++
	case res.Kind == ResultNoContent:
		r.NoContent++
	}
	if res.Success() {
		if res.Kind != ResultNoWindow {
			r.Succeeded++
		}
	} else {
		r.Failed++
	}
	r.PrunedTokens += len(res.PrunedTokens)
	for _, e := range res.Errors {
		r.addError(fmt.Sprintf("member %d: %s", res.MemberID, e))
	}
}

func (r *RunReport) addError(msg string) {
	limit := r.errorCap
	if limit <= 0 {
		limit = DefaultReportErrorCap
	}
	if len(r.Errors) >= limit {
		r.ErrorsTruncated++
		return
	}
	r.Errors = append(r.Errors, msg)
}

// Abort 扫描层错误导致调度中止
func (r *RunReport) Abort(err error) {
	r.Aborted = err.Error()
}
