// Package scancode generates ticket codes and resolves presented codes
// into lookup candidates. Resolution is an ordered chain of pure matchers
// so the redemption flow stays free of parsing concerns.
package scancode

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// CandidateKind tells the caller which lookup to run for a candidate.
type CandidateKind int

const (
	ByScanCode CandidateKind = iota
	ByTicketNumber
	ByTicketID
)

type Candidate struct {
	Kind  CandidateKind
	Value string
}

// compositeSep separates the ticket id prefix from the printed suffix in
// composite codes. Colon is not part of the uuid alphabet, so splitting
// on the first occurrence is unambiguous.
const compositeSep = ":"

var ticketNumberRe = regexp.MustCompile(`^TKT-[A-Z0-9]{8}$`)

// NewScanCode returns the opaque code encoded into the ticket's QR.
func NewScanCode() string {
	return uuid.New().String()
}

// NewTicketNumber returns a human-readable ticket number.
func NewTicketNumber() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "TKT-" + raw[:8]
}

// Composite returns the printed fallback code embedding the ticket id.
func Composite(ticketID, scanCode string) string {
	suffix := scanCode
	if i := strings.IndexByte(scanCode, '-'); i > 0 {
		suffix = scanCode[:i]
	}
	return ticketID + compositeSep + suffix
}

// Resolve turns a presented code into lookup candidates, most specific
// first: exact scan code, then ticket-number format, then the composite
// ticket-id prefix. Callers try each in order and stop at the first hit.
func Resolve(code string) []Candidate {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}

	candidates := []Candidate{{Kind: ByScanCode, Value: code}}

	if upper := strings.ToUpper(code); ticketNumberRe.MatchString(upper) {
		candidates = append(candidates, Candidate{Kind: ByTicketNumber, Value: upper})
	}

	if prefix, _, found := strings.Cut(code, compositeSep); found {
		if _, err := uuid.Parse(prefix); err == nil {
			candidates = append(candidates, Candidate{Kind: ByTicketID, Value: prefix})
		}
	}

	return candidates
}

func (k CandidateKind) String() string {
	switch k {
	case ByScanCode:
		return "scan_code"
	case ByTicketNumber:
		return "ticket_number"
	case ByTicketID:
		return "ticket_id"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}
