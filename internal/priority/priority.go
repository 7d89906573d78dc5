// Package priority computes waiting-queue priority scores.
package priority

import "github.com/moabank/counsel/internal/models"

// Base scores per inquiry category. Complaints outrank product questions,
// which outrank general inquiries.
var categoryScores = map[string]int{
	models.CategoryComplaint: 30,
	models.CategoryProduct:   20,
	models.CategoryGeneral:   10,
}

// Tier bonuses added on top of the category score.
var tierScores = map[string]int{
	models.TierVIP:   40,
	models.TierBasic: 0,
}

// Score maps a customer tier and inquiry category to a queue priority.
// Higher scores are served first. The function is deterministic and never
// fails: unknown tiers or categories contribute zero, so a misclassified
// inquiry still enters the queue at the lowest priority instead of
// aborting session creation.
func Score(tier, category string) int {
	return tierScores[tier] + categoryScores[category]
}
