// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package bulk

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/gardener/elasticsearch-reporter/pkg/util"
)

// Marshal creates the bulk document line of its metadata and source.
func (b *Bulk) Marshal() (DocumentLine, error) {
	meta, err := util.MarshalNoHTMLEscape(b.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal bulk action header")
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(meta)+len(b.Source)+1))
	buf.Write(meta)
	buf.Write(b.Source)
	if len(b.Source) == 0 || b.Source[len(b.Source)-1] != '\n' {
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// NewList creates a list of Bulks with the same metadata
func NewList(meta interface{}, sources [][]byte) BulkList {
	bulks := make([]*Bulk, 0)
	for _, source := range sources {
		bulks = append(bulks, &Bulk{
			Metadata: meta,
			Source:   source,
		})
	}

	return bulks
}

// Marshal creates the document lines of all bulks in order.
func (l BulkList) Marshal() ([]DocumentLine, error) {
	lines := make([]DocumentLine, 0, len(l))
	for _, bulk := range l {
		data, err := bulk.Marshal()
		if err != nil {
			return nil, err
		}
		lines = append(lines, data)
	}
	return lines, nil
}

// Len returns the number of documents in the batch.
func (b Batch) Len() int {
	return len(b)
}

// Size returns the number of payload bytes of the batch.
func (b Batch) Size() int {
	size := 0
	for _, line := range b {
		size += len(line)
	}
	return size
}

// Payload concatenates all document lines into one newline delimited json payload.
// The lines are expected to be newline terminated already so no separator is added.
func (b Batch) Payload() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, b.Size()))
	for _, line := range b {
		buf.Write(line)
	}
	return buf.Bytes()
}

// ParseBulkFile reads a newline delimited json document of action headers and sources.
// Sources without a preceding action header get the default metadata.
// If no default metadata is given such sources are skipped.
func ParseBulkFile(log logr.Logger, defaultMeta interface{}, docs []byte) BulkList {
	bulks := make(BulkList, 0)
	var meta map[string]interface{}

	for doc := range util.ReadLines(docs) {
		if len(bytes.TrimSpace(doc)) == 0 {
			continue
		}
		var jsonBody map[string]interface{}
		if err := json.Unmarshal(doc, &jsonBody); err != nil {
			log.V(5).Info(fmt.Sprintf("cannot unmarshal document %s", err.Error()))
			continue
		}

		if isActionHeader(jsonBody) {
			meta = jsonBody
			continue
		}

		bulk := &Bulk{
			Source:   doc,
			Metadata: meta,
		}
		if meta == nil {
			if defaultMeta == nil {
				log.V(3).Info("skipping document without action header")
				continue
			}
			bulk.Metadata = defaultMeta
		}

		bulks = append(bulks, bulk)
		meta = nil
	}

	return bulks
}

func isActionHeader(body map[string]interface{}) bool {
	if len(body) != 1 {
		return false
	}
	for _, action := range []string{"index", "create"} {
		if _, ok := body[action].(map[string]interface{}); ok {
			return true
		}
	}
	return false
}
