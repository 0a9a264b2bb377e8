// Package model holds the shared data types for the resolution pipeline.
package model

import (
	"strconv"

	"github.com/sells-group/chmatch/pkg/companieshouse"
)

// OutcomeStatus classifies the result of resolving one input name.
type OutcomeStatus string

const (
	OutcomeMatched   OutcomeStatus = "matched"
	OutcomeUnmatched OutcomeStatus = "unmatched"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is the terminal result of resolving one raw company name.
// Exactly one of the three statuses applies: Matched carries the best
// candidate and its score, Unmatched carries the best score seen (which
// may be 0 when the registry returned nothing), Failed carries Err.
type Outcome struct {
	Status         OutcomeStatus             `json:"status"`
	Candidate      *companieshouse.Candidate `json:"candidate,omitempty"`
	Score          int                       `json:"score"`
	QueryUsed      string                    `json:"query_used,omitempty"`
	CandidatesSeen int                       `json:"candidates_seen"`
	Err            string                    `json:"error,omitempty"`
}

// Matched reports whether the outcome carries an accepted candidate.
func (o Outcome) Matched() bool { return o.Status == OutcomeMatched }

// Export column keys merged onto each input row for the downstream CSV.
const (
	ColResolvedName    = "resolved_name"
	ColResolvedNumber  = "resolved_number"
	ColResolvedStatus  = "resolved_status"
	ColResolvedType    = "resolved_type"
	ColResolvedAddress = "resolved_address"
	ColResolvedDate    = "resolved_date"
	ColMatchScore      = "match_score"
	ColQueryUsed       = "query_used"
	ColCandidatesSeen  = "candidates_seen"
	ColError           = "error"
)

// ExportColumns is the fixed, ordered set of result columns appended
// after the input columns in the exported CSV.
var ExportColumns = []string{
	ColResolvedName,
	ColResolvedNumber,
	ColResolvedStatus,
	ColResolvedType,
	ColResolvedAddress,
	ColResolvedDate,
	ColMatchScore,
	ColQueryUsed,
	ColCandidatesSeen,
	ColError,
}

// ExportFields flattens the outcome into the fixed export column map.
func (o Outcome) ExportFields() map[string]string {
	fields := map[string]string{
		ColMatchScore:     strconv.Itoa(o.Score),
		ColQueryUsed:      o.QueryUsed,
		ColCandidatesSeen: strconv.Itoa(o.CandidatesSeen),
		ColError:          o.Err,
	}
	if o.Candidate != nil {
		fields[ColResolvedName] = o.Candidate.Title
		fields[ColResolvedNumber] = o.Candidate.CompanyNumber
		fields[ColResolvedStatus] = o.Candidate.CompanyStatus
		fields[ColResolvedType] = o.Candidate.CompanyType
		fields[ColResolvedAddress] = o.Candidate.AddressSnippet
		fields[ColResolvedDate] = o.Candidate.DateOfCreation
	} else {
		fields[ColResolvedName] = ""
		fields[ColResolvedNumber] = ""
		fields[ColResolvedStatus] = ""
		fields[ColResolvedType] = ""
		fields[ColResolvedAddress] = ""
		fields[ColResolvedDate] = ""
	}
	return fields
}
