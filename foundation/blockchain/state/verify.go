package state

import (
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// TamperReport is the outcome of a tamper check.
type TamperReport struct {
	TamperingDetected bool     `json:"tampering_detected"`
	ChainValid        bool     `json:"chain_valid"`
	Errors            []string `json:"errors"`
}

// IsChainValid verifies the whole chain from genesis and returns every
// problem found. When verbose each check is reported to the event handler.
// A failed verification is recorded in the security log.
func (s *State) IsChainValid(verbose bool) (bool, []string) {
	valid, errs := s.verifyChain(verbose)

	if !valid {
		s.logSecurity(fmt.Sprintf("chain verification failed: errors[%d]", len(errs)))
	}

	return valid, errs
}

// DetectTampering verifies the chain and records the outcome in the security
// log. The chain is never modified.
func (s *State) DetectTampering() TamperReport {
	valid, errs := s.verifyChain(false)

	report := TamperReport{
		TamperingDetected: !valid,
		ChainValid:        valid,
		Errors:            errs,
	}
	if report.Errors == nil {
		report.Errors = []string{}
	}

	entry := "tamper check: chain is intact"
	if !valid {
		entry = fmt.Sprintf("tamper check: TAMPERING DETECTED: errors[%d]", len(errs))
	}
	s.logSecurity(entry)

	s.metrics.ObserveTamperCheck(!valid)

	return report
}

// SecurityLog returns a copy of the security log.
func (s *State) SecurityLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string{}, s.securityLog...)
}

// =============================================================================

// verifyChain runs the chain verification over a snapshot of the blocks.
func (s *State) verifyChain(verbose bool) (bool, []string) {
	blocks, err := s.db.Blocks()
	if err != nil {
		return false, []string{fmt.Sprintf("reading chain: %s", err)}
	}

	var ev func(v string, args ...any)
	if verbose {
		ev = s.evHandler
	}

	return database.VerifyChain(blocks, ev)
}

// logSecurity appends a timestamped entry to the security log.
func (s *State) logSecurity(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry = fmt.Sprintf("%s: %s", time.Now().UTC().Format(time.RFC3339), entry)
	s.securityLog = append(s.securityLog, entry)

	s.evHandler("state: security: %s", entry)
}
