// Package ranking implements the per-user venue ranking pipeline: projection
// of raw visit records into deduplicated candidates, satisfaction-tier
// classification, dense rank assignment, and atomic persistence of the
// resulting rank list.
//
// Basic usage:
//
//	rebuilder := ranking.NewRebuilder(visitStore, rankStore, ranking.RebuilderConfig{
//		Policy: ranking.PolicyGlobal,
//	})
//	written, err := rebuilder.RebuildUser(ctx, userID)
//
// A full batch run over every known user:
//
//	job := ranking.NewRecomputeJob(rebuilder, visitStore, rankStore, ranking.RecomputeJobConfig{})
//	result := job.RunOnce(ctx)
//
// Rank assignment supports two numbering policies. PolicyGlobal assigns one
// continuous dense permutation 1..N across all tiers; PolicyPerTier restarts
// at 1 inside each tier. The policy is chosen once at construction, normally
// from configuration or a JSON calibration file (see LoadCalibration).
package ranking
