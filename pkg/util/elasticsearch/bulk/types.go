// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package bulk

// Bulk is the internal representation of one document of an elastic search bulk request.
type Bulk struct {
	Metadata interface{} `json:",inline"`
	Source   []byte      `json:",inline"`
}

// BulkList is a list of bulks
type BulkList []*Bulk

// ESMetadata is the metadata of a bulk document.
type ESMetadata struct {
	Index ESIndex `json:"index"`
}

// ESIndex is the elastic search index where the bulk data is stored.
type ESIndex struct {
	Index    string `json:"_index,omitempty"`
	Type     string `json:"_type,omitempty"`
	ID       string `json:"_id,omitempty"`
	Pipeline string `json:"pipeline,omitempty"`
}

// DocumentLine is an already serialized action header and document source.
// Both lines are terminated by a newline.
type DocumentLine []byte

// Batch is an ordered list of document lines that is submitted with one bulk request.
type Batch []DocumentLine
