package rules

import (
	"time"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

const (
	testAccount = "111122223333"
	testProfile = "test"
	testRegion  = "us-east-1"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func regionCtx(data models.AWSRegionData) RuleContext {
	if data.Region == "" {
		data.Region = testRegion
	}
	return RuleContext{
		AccountID:  testAccount,
		Profile:    testProfile,
		RegionData: &data,
		Now:        testNow,
	}
}

func accountCtx(data models.AWSAccountData) RuleContext {
	return RuleContext{
		AccountID: testAccount,
		Profile:   testProfile,
		Account:   &data,
		Now:       testNow,
	}
}

func resourceIDs(findings []models.Finding) []string {
	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.ResourceID)
	}
	return ids
}

// near reports whether a and b differ by at most a cent.
func near(a, b float64) bool {
	d := a - b
	return d <= 0.01 && d >= -0.01
}
