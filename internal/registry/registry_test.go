package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/campaignflow/pkg/schema"
)

func TestLookup_AllKinds(t *testing.T) {
	for _, kind := range schema.StepKinds() {
		got, ok := Lookup(string(kind))
		assert.True(t, ok, "kind %s", kind)
		assert.Equal(t, kind, got)
	}
	assert.Len(t, schema.StepKinds(), 20)
}

func TestLookup_Rejects(t *testing.T) {
	for _, raw := range []any{"bogus_type", "", nil, 42, "Message"} {
		_, ok := Lookup(raw)
		assert.False(t, ok, "raw %v", raw)
	}
}

func TestLookupEvent(t *testing.T) {
	for _, kind := range schema.EventKinds() {
		got, ok := LookupEvent(string(kind))
		assert.True(t, ok)
		assert.Equal(t, kind, got)
	}
	_, ok := LookupEvent("timeout")
	assert.False(t, ok)
}

func TestValidPeriodAndUnit(t *testing.T) {
	assert.True(t, ValidPeriod("Hours"))
	assert.False(t, ValidPeriod("hours"))
	assert.False(t, ValidPeriod(3))
	assert.True(t, ValidUnit("days"))
	assert.False(t, ValidUnit("Days"))
	assert.False(t, ValidUnit("weeks"))
}

// --- Profiles ---

func TestSilentDefaults_Message(t *testing.T) {
	d := SilentDefaults(schema.StepMessage)
	assert.Equal(t, "none", d["discountType"])
	assert.Equal(t, "", d["discountValue"])
	assert.Equal(t, false, d["addImage"])
	assert.Equal(t, false, d["sendContactCard"])
	assert.Len(t, d, 8)
}

func TestSilentDefaults_PurchaseOffer(t *testing.T) {
	d := SilentDefaults(schema.StepPurchaseOffer)
	assert.Equal(t, "manual", d["cartSource"])
	assert.Equal(t, true, d["includeProductImage"])
	assert.Equal(t, false, d["discountExpiry"])
}

func TestSilentDefaults_Branches(t *testing.T) {
	assert.Equal(t, "include", SilentDefaults(schema.StepSplit)["action"])
	assert.Equal(t, "control", SilentDefaults(schema.StepSplitGroup)["action"])
	assert.Equal(t, "schedule", SilentDefaults(schema.StepSplitRange)["action"])
	assert.Equal(t, true, SilentDefaults(schema.StepSplitRange)["enabled"])
	assert.Equal(t, "yes", SilentDefaults(schema.StepReply)["intent"])
}

func TestSilentDefaults_ReturnsCopy(t *testing.T) {
	d := SilentDefaults(schema.StepMessage)
	d["discountType"] = "percentage"
	assert.Equal(t, "none", SilentDefaults(schema.StepMessage)["discountType"])
}

func TestSilentDefaults_KindsWithoutProfile(t *testing.T) {
	assert.Empty(t, SilentDefaults(schema.StepStart))
	assert.Empty(t, SilentDefaults(schema.StepDelay))
}

func TestDefaultQuizConfig(t *testing.T) {
	cfg := DefaultQuizConfig()
	assert.Equal(t, 300, cfg["timeLimit"])
	assert.Equal(t, 70, cfg["passingScore"])
	assert.Equal(t, false, cfg["shuffleQuestions"])
	assert.Equal(t, true, cfg["showResults"])
}

// --- Events ---

func TestEventFields(t *testing.T) {
	reply := EventFields(schema.EventReply)
	assert.True(t, reply["intent"])
	assert.True(t, reply[schema.KeyNextStepID])
	assert.False(t, reply["after"])

	noreply := EventFields(schema.EventNoReply)
	assert.True(t, noreply["after"])
	assert.False(t, noreply["label"])

	def := EventFields(schema.EventDefault)
	assert.Len(t, def, 5)
}

// --- Placeholders ---

func TestPlaceholders(t *testing.T) {
	require.Len(t, PlaceholderProducts(), 2)
	assert.Equal(t, "customer_type", DefaultSegmentCondition()["propertyName"])

	props := DefaultProperties("s9")
	require.Len(t, props, 1)
	assert.Equal(t, "prop_s9_1", props[0].(map[string]any)["id"])

	assert.Equal(t, "Experiment s3", DefaultExperimentName("s3"))
	assert.Len(t, DefaultQuizQuestions(), 1)
}
