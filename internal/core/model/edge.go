package model

type Edge struct {
	ID         string            `json:"edge_id"`
	From       string            `json:"node_id_from"`
	To         string            `json:"node_id_to"`
	Type       string            `json:"edge_type"`
	Properties map[string]string `json:"edge_properties,omitempty"`
}

// Edge property keys and sub-type tags used by the default rules.
const (
	PropAddressType = "ADDRESS_TYPE"
	PropNameType    = "NAME_TYPE"

	TagSecondary = "SECONDARY"
	TagTertiary  = "TERTIARY"
)

// EdgeType is the conventional tag of a type pair, e.g. person_address.
func EdgeType(sourceType, targetType string) string {
	return sourceType + "_" + targetType
}
