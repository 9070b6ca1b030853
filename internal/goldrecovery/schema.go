package goldrecovery

import "strings"

// Column names in the flotation export.
const (
	DateColumn      = "date"
	RougherRecovery = "rougher.output.recovery"
	FinalRecovery   = "final.output.recovery"

	RougherFeedAu        = "rougher.input.feed_au"
	RougherConcentrateAu = "rougher.output.concentrate_au"
	RougherTailAu        = "rougher.output.tail_au"
	RougherConcentrateAg = "rougher.output.concentrate_ag"
	FinalConcentrateAu   = "final.output.concentrate_au"
	FinalTailAu          = "final.output.tail_au"
	PrimaryConcentrateAu = "primary_cleaner.output.concentrate_au"
	PrimaryConcentrateAg = "primary_cleaner.output.concentrate_ag"

	AuRecoveryRatio = "au_recovery_ratio"
	AgRecoveryRatio = "ag_recovery_ratio"
)

// RecoveryTargets are the recorded recovery percentages.
var RecoveryTargets = []string{RougherRecovery, FinalRecovery}

// FormulaInputs lists the feed, concentrate and tail grades each recovery
// target is computed from.
var FormulaInputs = map[string][]string{
	RougherRecovery: {RougherFeedAu, RougherConcentrateAu, RougherTailAu},
	FinalRecovery:   {RougherFeedAu, FinalConcentrateAu, FinalTailAu},
}

// derivedSources records which raw columns each engineered feature reads.
var derivedSources = map[string][]string{
	AuRecoveryRatio: {PrimaryConcentrateAu, RougherConcentrateAu},
	AgRecoveryRatio: {PrimaryConcentrateAg, RougherConcentrateAg},
}

// isProcessOutput reports columns measured after the process step runs,
// which are unavailable at prediction time.
func isProcessOutput(col string) bool {
	return strings.Contains(col, ".output.") || strings.Contains(col, ".calculation.")
}
