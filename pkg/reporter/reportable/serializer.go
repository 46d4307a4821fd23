// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package reportable

import (
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/gardener/elasticsearch-reporter/pkg/reporter/profile"
	"github.com/gardener/elasticsearch-reporter/pkg/util"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch/bulk"
)

// TimestampLayout is the layout of the @timestamp field of all documents.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Serializer converts reportables into bulk document lines.
type Serializer struct {
	Profile     profile.Profile
	IndexPrefix string
	// Pipeline is added to the action header of request documents if set.
	Pipeline string
	NodeID   string
	Hostname string

	// Clock is used for reportables without timestamp.
	Clock clock.PassiveClock
}

// Serialize returns the document lines of a reportable.
// Request metrics with a log result in a request and a log document.
func (s *Serializer) Serialize(r Reportable) ([]bulk.DocumentLine, error) {
	var (
		list bulk.BulkList
		err  error
	)
	switch obj := r.(type) {
	case *Metrics:
		list, err = s.metrics(obj)
	case *Log:
		list, err = s.single(profile.TypeLog, obj.Timestamp, obj.RequestID, func(c common) interface{} {
			return newLogDocument(c, obj)
		})
	case *EndpointStatus:
		list, err = s.single(profile.TypeHealth, obj.Timestamp, "", func(c common) interface{} {
			return newHealthDocument(c, obj)
		})
	case *Monitor:
		list, err = s.single(profile.TypeMonitor, obj.Timestamp, "", func(c common) interface{} {
			return newMonitorDocument(c, obj)
		})
	case nil:
		return nil, errors.New("reportable must not be nil")
	default:
		return nil, errors.Errorf("unsupported reportable %T", r)
	}
	if err != nil {
		return nil, err
	}
	return list.Marshal()
}

func (s *Serializer) metrics(m *Metrics) (bulk.BulkList, error) {
	list, err := s.single(profile.TypeRequest, m.Timestamp, m.RequestID, func(c common) interface{} {
		return newRequestDocument(c, m)
	})
	if err != nil {
		return nil, err
	}
	if m.Log == nil {
		return list, nil
	}

	log := *m.Log
	if log.RequestID == "" {
		log.RequestID = m.RequestID
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = m.Timestamp
	}
	logList, err := s.single(profile.TypeLog, log.Timestamp, log.RequestID, func(c common) interface{} {
		return newLogDocument(c, &log)
	})
	if err != nil {
		return nil, err
	}
	return append(list, logList...), nil
}

// single creates the bulk of one document.
func (s *Serializer) single(docType profile.DocumentType, ts time.Time, id string, document func(common) interface{}) (bulk.BulkList, error) {
	if ts.IsZero() {
		ts = s.now()
	}
	source, err := util.MarshalNoHTMLEscape(document(common{
		Gateway:   s.NodeID,
		Hostname:  s.Hostname,
		Timestamp: ts.UTC().Format(TimestampLayout),
	}))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to marshal %s document", docType)
	}

	meta := bulk.ESMetadata{
		Index: bulk.ESIndex{
			Index: s.Profile.IndexName(s.IndexPrefix, docType, ts),
			Type:  s.Profile.DocType(docType),
			ID:    id,
		},
	}
	if docType == profile.TypeRequest {
		meta.Index.Pipeline = s.Pipeline
	}
	return bulk.NewList(meta, [][]byte{source}), nil
}

func (s *Serializer) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}
