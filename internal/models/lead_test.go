package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParticipantIDsDeduplicates(t *testing.T) {
	rep := uuid.New()
	manager := uuid.New()

	lead := &Lead{
		SalesRepID:     &rep,
		SalesManagerID: &manager,
		// Same person runs production and management
		ProductionManagerID: &manager,
	}

	ids := lead.ParticipantIDs()
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, rep)
	assert.Contains(t, ids, manager)
}

func TestParticipantIDsSkipsNilAndZero(t *testing.T) {
	zero := uuid.Nil
	lead := &Lead{MarketingRepID: &zero}
	assert.Empty(t, lead.ParticipantIDs())

	lead = &Lead{}
	assert.Empty(t, lead.ParticipantIDs())
}
