package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/agenthands/graphmock/internal/core/model"
)

// WriteGremlinNodes writes the Gremlin bulk-load node layout:
// ~id, lower-cased typed property columns, then ~label last.
func WriteGremlinNodes(w io.Writer, attrs []model.NodeAttributes) error {
	cols := propertyColumns(attrs, strings.ToLower)
	header := []string{"~id", "node_name:String"}
	for _, c := range cols {
		header = append(header, c.header)
	}
	header = append(header, "~label")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range attrs {
		row := []string{a.NodeID, a.NodeName}
		for _, c := range cols {
			row = append(row, Flatten(a.Properties[c.key]))
		}
		row = append(row, a.NodeType)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGremlinEdges writes ~id, ~from, ~to, typed properties, then ~label.
func WriteGremlinEdges(w io.Writer, edgeList []model.Edge) error {
	keys := edgeColumns(edgeList)
	header := []string{"~id", "~from", "~to"}
	for _, k := range keys {
		header = append(header, strings.ToLower(k)+":String")
	}
	header = append(header, "~label")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range edgeList {
		row := []string{e.ID, e.From, e.To}
		for _, k := range keys {
			row = append(row, e.Properties[k])
		}
		row = append(row, e.Type)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOpenCypherNodes writes :ID, typed property columns keeping their
// original case, then :LABEL.
func WriteOpenCypherNodes(w io.Writer, attrs []model.NodeAttributes) error {
	cols := propertyColumns(attrs, func(k string) string { return k })
	header := []string{":ID", "node_name:String"}
	for _, c := range cols {
		header = append(header, c.header)
	}
	header = append(header, ":LABEL")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range attrs {
		row := []string{a.NodeID, a.NodeName}
		for _, c := range cols {
			row = append(row, Flatten(a.Properties[c.key]))
		}
		row = append(row, a.NodeType)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOpenCypherEdges writes :ID, :START_ID, :END_ID, :TYPE, then properties.
func WriteOpenCypherEdges(w io.Writer, edgeList []model.Edge) error {
	keys := edgeColumns(edgeList)
	header := []string{":ID", ":START_ID", ":END_ID", ":TYPE"}
	for _, k := range keys {
		header = append(header, k+":String")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range edgeList {
		row := []string{e.ID, e.From, e.To, e.Type}
		for _, k := range keys {
			row = append(row, e.Properties[k])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
