// Package goldrecovery prepares flotation process data for predicting gold
// recovery.
//
// Recovery is the share of gold in the feed that ends up in the concentrate:
//
//	recovery = 100 * C * (F - T) / (F * (C - T))
//
// with F, C and T the feed, concentrate and tail grades. The package loads
// the process export, cleans it (BasicClean, FillMissingWithMedian), derives
// concentrate ratios and calendar fields (CreateFeatures), and splits
// predictors from the chosen recovery target without leaking the columns
// the target is computed from (MakeFeaturesAndTarget).
package goldrecovery
