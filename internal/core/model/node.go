package model

import "strings"

// Node types in the default palette.
const (
	TypePerson  = "person"
	TypeName    = "name"
	TypeAddress = "address"
	TypePhone   = "phone"
	TypeEmail   = "email"
	TypeANumber = "anumber"
	TypeForm    = "form"
	TypeReceipt = "receipt"
)

// DefaultPalette is the node type universe used when no distribution is configured.
var DefaultPalette = []string{
	TypePerson, TypeName, TypeAddress, TypePhone,
	TypeEmail, TypeANumber, TypeForm, TypeReceipt,
}

type Node struct {
	ID   string `json:"node_id"`
	Type string `json:"node_type"`
}

// Variant tags.
const (
	TagPrimary   = "PRIMARY"
	TagOther     = "OTHER"
	TagAlias     = "ALIAS"
	TagVariant   = "VARIANT"
	TagAlternate = "ALTERNATE"
)

// Variant is one entry of an ordered list of equivalent values. The entry
// tagged PRIMARY is always first.
type Variant struct {
	Value string `json:"value"`
	Tag   string `json:"tag"`
}

// Values flattens a variant list to its values, preserving order.
func Values(vs []Variant) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Value
	}
	return out
}

// NameRecord is the structured form of a name variant.
type NameRecord struct {
	First string `json:"NAME_FIRST"`
	Last  string `json:"NAME_LAST"`
	Type  string `json:"NAME_TYPE"`
}

// Property keys written by the synthesizer.
const (
	PropNameFull       = "NAME_FULL"
	PropNameFullList   = "NAME_FULL_LIST"
	PropNameList       = "NAME_LIST"
	PropBirthDate      = "BIRTH_DATE"
	PropBirthDateList  = "BIRTH_DATE_LIST"
	PropANumberPrimary = "ANUMBER_PRIMARY"
	PropANumberList    = "ANUMBER_LIST"
	PropANumber        = "ANUMBER"
	PropAddressFull    = "ADDRESS_FULL"
	PropPhoneNumber    = "PHONE_NUMBER"
	PropEmailAddress   = "EMAIL_ADDRESS"
	PropFormType       = "FORM_TYPE"
	PropFormID         = "FORM_ID"
	PropReceiptNumber  = "RECEIPT_NUMBER"
)

// Properties maps attribute names to a string, nil, a []Variant or a []NameRecord.
type Properties map[string]any

func (p Properties) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

func (p Properties) Variants(key string) ([]Variant, bool) {
	vs, ok := p[key].([]Variant)
	return vs, ok
}

// IsDate reports whether a property key holds calendar dates.
func IsDate(key string) bool {
	return strings.Contains(key, "DATE")
}

type NodeAttributes struct {
	NodeID     string     `json:"node_id"`
	NodeType   string     `json:"node_type"`
	NodeName   string     `json:"node_name"`
	Properties Properties `json:"node_properties"`
}
