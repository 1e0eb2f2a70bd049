package letter

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watersafe/internal/model"
)

func testSystem() model.WaterSystem {
	return model.WaterSystem{
		PWSID:            "GA0010000",
		Name:             "BAXLEY",
		Type:             "Community water system",
		PrimarySource:    "Ground water",
		PopulationServed: 5749,
		Contact:          model.Contact{AdminName: "Jane Operator", Phone: "912-555-0100"},
	}
}

func TestRenderEachTemplate(t *testing.T) {
	r := NewPDFRenderer()
	violation := &model.ViolationRecord{ViolationID: "V1", ViolationType: "MCL, Monthly", ContaminantName: "Nitrate", BeginDate: "2025-01-10"}
	task := &model.ComplianceTask{ID: "event-0", Name: "CCR delivery", Due: "2024-06-30", DaysLeft: -40}

	for _, tpl := range Templates() {
		t.Run(tpl.ID, func(t *testing.T) {
			doc, err := r.Render(context.Background(), Request{
				Template:       tpl,
				System:         testSystem(),
				Violation:      violation,
				Task:           task,
				RecipientCount: 5749,
				Date:           time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)
			assert.Equal(t, "application/pdf", doc.ContentType)
			assert.Equal(t, "letter-GA0010000-"+tpl.ID+".pdf", doc.Name)
			assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF-")), "missing pdf header")
		})
	}
}

func TestRenderRejectsUnknownTier(t *testing.T) {
	_, err := NewPDFRenderer().Render(context.Background(), Request{
		Template: Template{ID: "custom", Tier: model.Tier(9)},
		System:   testSystem(),
	})
	require.Error(t, err)
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tpl, _ := Lookup(TemplateUrgent)
	_, err := NewPDFRenderer().Render(ctx, Request{Template: tpl, System: testSystem()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLookup(t *testing.T) {
	tpl, ok := Lookup(TemplateViolation)
	require.True(t, ok)
	assert.Equal(t, model.Tier2Standard, tpl.Tier)
	_, ok = Lookup("missing")
	assert.False(t, ok)
	assert.Len(t, Templates(), 3)
}
