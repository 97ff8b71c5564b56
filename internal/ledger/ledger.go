package ledger

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"itemmatch/internal/domain"
	"itemmatch/internal/storage"
)

// skipToken is the literal a user types to decline giving feedback.
const skipToken = "skip"

// timestampLayout is wall clock at second precision.
const timestampLayout = "2006-01-02 15:04:05"

// rule is one guard of the classification cascade. Rules are evaluated
// top to bottom and the first match wins.
type rule struct {
	status domain.FeedbackStatus
	match  func(results []domain.SearchResult, code string) bool
}

var rules = []rule{
	{domain.StatusNoMatches, func(results []domain.SearchResult, _ string) bool {
		return len(results) == 0
	}},
	{domain.StatusSkipped, func(_ []domain.SearchResult, code string) bool {
		return strings.EqualFold(code, skipToken)
	}},
	{domain.StatusTopConfirmed, func(results []domain.SearchResult, code string) bool {
		return code != "" && code == results[0].ItemCode
	}},
	{domain.StatusOtherSelected, func(results []domain.SearchResult, code string) bool {
		if code == "" {
			return false
		}
		for _, r := range results {
			if r.ItemCode == code {
				return true
			}
		}
		return false
	}},
	{domain.StatusNewCode, func(_ []domain.SearchResult, code string) bool {
		return code != ""
	}},
	{domain.StatusNoFeedback, func(_ []domain.SearchResult, _ string) bool {
		return true
	}},
}

// Classify maps a completed search and the user's optional confirmed code to
// a feedback status. The empty string (after trimming) means no code was
// provided; the skip token is matched case-insensitively.
func Classify(results []domain.SearchResult, userCode string) domain.FeedbackStatus {
	code := strings.TrimSpace(userCode)
	for _, r := range rules {
		if r.match(results, code) {
			return r.status
		}
	}
	// unreachable: the last rule always matches
	return domain.StatusNoFeedback
}

// Ledger is an append-only log of classified search outcomes. Each Record
// call reads the whole log, appends one record and writes the whole log
// back; prior records are never edited or removed.
type Ledger struct {
	store storage.Store[[]domain.FeedbackRecord]
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(store storage.Store[[]domain.FeedbackRecord], opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record classifies the outcome and appends it to the log. A missing,
// unreadable or structurally wrong log file is treated as an empty log.
// The classified record is returned even when persisting it fails; the
// error then reports that this record was not durably stored.
func (l *Ledger) Record(query string, results []domain.SearchResult, userCode string) (domain.FeedbackRecord, error) {
	code := strings.TrimSpace(userCode)
	record := domain.FeedbackRecord{
		Query:            query,
		Timestamp:        l.now().Format(timestampLayout),
		Results:          results,
		UserSelectedCode: code,
		FeedbackStatus:   Classify(results, code),
	}
	if len(results) > 0 {
		record.SuggestedTopCode = results[0].ItemCode
	}

	records, ok, err := l.store.Read()
	if err != nil {
		log.Warnf("feedback log unreadable, starting a new log: %v", err)
		records = nil
	} else if !ok {
		records = nil
	}
	records = append(records, record)

	if err := l.store.Write(records); err != nil {
		return record, fmt.Errorf("persist feedback record: %w", err)
	}
	log.Debugf("logged feedback for query %q with status %q", query, record.FeedbackStatus)
	return record, nil
}

// All returns every record in append order for downstream analysis.
func (l *Ledger) All() ([]domain.FeedbackRecord, error) {
	records, ok, err := l.store.Read()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return records, nil
}
