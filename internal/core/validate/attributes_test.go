package validate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/graphmock/internal/core/common"
	"github.com/agenthands/graphmock/internal/core/model"
	"github.com/agenthands/graphmock/internal/core/nodepool"
	"github.com/agenthands/graphmock/internal/core/synth"
)

func TestSynthesizedAttributesAreValid(t *testing.T) {
	nodes, err := nodepool.Generate(120, nil, common.NewRand(6), nil)
	require.NoError(t, err)

	opts := synth.DefaultOptions()
	opts.AsOf = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := synth.New(common.NewRand(6), opts)
	require.NoError(t, err)
	attrs, skipped := s.SynthesizeAll(nodes)
	require.Zero(t, skipped)

	r := ValidateAttributes(nodes, attrs, "")
	assert.Equal(t, len(attrs), r.Valid)
	assert.Zero(t, r.Invalid)

	// round trip through JSON keeps the same verdict
	data, err := json.Marshal(attrs)
	require.NoError(t, err)
	var back []model.NodeAttributes
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, ValidateAttributes(nodes, back, ""))
}

func TestAttributeFindings(t *testing.T) {
	nodes := []model.Node{{ID: "P1", Type: "person"}, {ID: "P2", Type: "person"}, {ID: "A1", Type: "address"}}
	attrs := []model.NodeAttributes{
		{NodeID: "P1", Properties: model.Properties{
			model.PropNameFull: "JOHN SMITH",
			model.PropNameFullList: []model.Variant{
				{Value: "JOHN SMITH", Tag: model.TagPrimary},
				{Value: "JOHN SMITH", Tag: model.TagOther},
			},
		}},
		{NodeID: "P2", Properties: model.Properties{
			model.PropBirthDate: "1980-01-02",
			model.PropBirthDateList: []model.Variant{
				{Value: "1980-01-03", Tag: model.TagVariant},
				{Value: "1980-01-02", Tag: model.TagPrimary},
			},
			model.PropANumberPrimary: nil,
			model.PropANumberList:    []model.Variant{},
		}},
		{NodeID: "A1", Properties: model.Properties{model.PropAddressFull: "1 MAIN ST"}},
		{NodeID: "Z9"},
	}

	r := ValidateAttributes(nodes, attrs, model.TypePerson)
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 0, r.Valid)
	assert.Equal(t, 4, r.Invalid)
	assert.Equal(t, []string{"Z9"}, r.Missing)
	assert.Equal(t, []string{"A1"}, r.WrongType)
	assert.Equal(t, []string{"P1/NAME_FULL_LIST", "P2/BIRTH_DATE_LIST"}, r.BadVariants)
}

func TestAttributeScalarMustMatchPrimary(t *testing.T) {
	nodes := []model.Node{{ID: "P1", Type: "person"}}
	attrs := []model.NodeAttributes{{NodeID: "P1", Properties: model.Properties{
		model.PropANumberPrimary: "0000000002",
		model.PropANumberList: []model.Variant{
			{Value: "0000000001", Tag: model.TagPrimary},
			{Value: "0000000002", Tag: model.TagAlternate},
		},
		model.PropBirthDate: "not-a-date",
	}}}

	r := ValidateAttributes(nodes, attrs, "")
	assert.Equal(t, []string{"P1/ANUMBER_LIST", "P1/BIRTH_DATE"}, r.BadVariants)
}

func TestValidateAttributesByType(t *testing.T) {
	nodes := []model.Node{{ID: "P1", Type: "person"}, {ID: "A1", Type: "address"}, {ID: "A2", Type: "address"}}
	attrs := []model.NodeAttributes{
		{NodeID: "P1", NodeType: "person"},
		{NodeID: "A1", NodeType: "address"},
		{NodeID: "P1", NodeType: "address"},
		{NodeID: "A2"},
	}

	reports := ValidateAttributesByType(nodes, attrs)
	require.Len(t, reports, 3)
	assert.Equal(t, 1, reports["person"].Valid)
	assert.Equal(t, 2, reports["address"].Total)
	assert.Equal(t, []string{"P1"}, reports["address"].WrongType)
	assert.Equal(t, 1, reports[""].Valid)
}
