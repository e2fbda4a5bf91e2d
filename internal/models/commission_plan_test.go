package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionPlanValidate(t *testing.T) {
	rate := decimal.NewFromInt(10)
	flat := decimal.NewFromInt(500)

	valid := CommissionPlan{
		Name:           "Standard",
		CommissionType: CommissionTypePercentage,
		CommissionRate: &rate,
		PaidWhen:       PaidWhenFinalPayment,
	}
	assert.NoError(t, valid.Validate())

	missingRate := valid
	missingRate.CommissionRate = nil
	assert.Error(t, missingRate.Validate())

	flatPlan := CommissionPlan{
		Name:           "Bonus",
		CommissionType: CommissionTypeFlatAmount,
		FlatAmount:     &flat,
		PaidWhen:       PaidWhenJobCompleted,
	}
	assert.NoError(t, flatPlan.Validate())

	missingFlat := flatPlan
	missingFlat.FlatAmount = nil
	assert.Error(t, missingFlat.Validate())

	// Custom plans need neither
	custom := CommissionPlan{
		Name:           "Negotiated",
		CommissionType: CommissionTypeCustom,
		PaidWhen:       PaidWhenCustom,
	}
	assert.NoError(t, custom.Validate())

	badType := valid
	badType.CommissionType = "matrix"
	assert.Error(t, badType.Validate())

	badTrigger := valid
	badTrigger.PaidWhen = "whenever"
	assert.Error(t, badTrigger.Validate())
}

func TestParseCommissionType(t *testing.T) {
	parsed, err := ParseCommissionType("percentage")
	require.NoError(t, err)
	assert.Equal(t, CommissionTypePercentage, parsed)

	_, err = ParseCommissionType("bogus")
	assert.Error(t, err)
}

func TestParsePaidWhen(t *testing.T) {
	parsed, err := ParsePaidWhen("when_deposit_paid")
	require.NoError(t, err)
	assert.Equal(t, PaidWhenDepositPaid, parsed)

	_, err = ParsePaidWhen("someday")
	assert.Error(t, err)
}

func TestCommissionStatusHelpers(t *testing.T) {
	assert.True(t, CommissionStatusPaid.Terminal())
	assert.True(t, CommissionStatusCancelled.Terminal())
	assert.False(t, CommissionStatusEligible.Terminal())

	assert.True(t, CommissionStatusApproved.Locked())
	assert.True(t, CommissionStatusPaid.Locked())
	assert.False(t, CommissionStatusPending.Locked())
	assert.False(t, CommissionStatusEligible.Locked())

	assert.True(t, CommissionStatus("eligible").Valid())
	assert.False(t, CommissionStatus("review").Valid())
}
