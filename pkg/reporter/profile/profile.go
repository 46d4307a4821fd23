// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package profile selects the wire and mapping dialect of an elasticsearch major version.
package profile

import (
	"fmt"
	"time"
)

// Kind is the tag of a client profile.
type Kind string

const (
	V2          Kind = "v2"
	V5          Kind = "v5"
	V6          Kind = "v6"
	Unsupported Kind = "unsupported"
)

// DocumentType is the type of a reported document.
type DocumentType string

const (
	TypeRequest DocumentType = "request"
	TypeLog     DocumentType = "log"
	TypeHealth  DocumentType = "health"
	TypeMonitor DocumentType = "monitor"
)

// DocumentTypes are all document types that are reported.
var DocumentTypes = []DocumentType{TypeRequest, TypeLog, TypeHealth, TypeMonitor}

// IndexDateLayout is the layout of the date suffix of daily indices (yyyy.MM.dd).
const IndexDateLayout = "2006.01.02"

// singleTypeName is the only mapping type of single type indices.
const singleTypeName = "doc"

// Profile parameterizes index naming, document types and template rendering for one major version.
type Profile struct {
	Kind  Kind
	Major int
}

// Template is an index template that has to exist before documents are indexed.
type Template struct {
	// Name is used in the path /_template/<name>.
	Name string
	// Pattern is the index pattern the template applies to.
	Pattern string
	// Types are the document types mapped by the template.
	Types []DocumentType
}

// ForMajor returns the client profile of a major version.
func ForMajor(major int) Profile {
	switch major {
	case 2:
		return Profile{Kind: V2, Major: major}
	case 5:
		return Profile{Kind: V5, Major: major}
	case 6:
		return Profile{Kind: V6, Major: major}
	default:
		return Profile{Kind: Unsupported, Major: major}
	}
}

// Supported returns whether documents can be written with this profile.
func (p Profile) Supported() bool {
	return p.Kind != Unsupported
}

// SupportsIngest returns whether ingest pipelines exist for this profile.
func (p Profile) SupportsIngest() bool {
	return p.Major >= 5
}

// SingleType returns whether indices can only hold one mapping type.
func (p Profile) SingleType() bool {
	return p.Kind == V6
}

// IndexName returns the daily index for a document of the given type and timestamp.
// The date is always derived in UTC.
//
// Indices are named <prefix>-<yyyy.MM.dd>. 6.x clusters intentionally deviate from this
// convention and use <prefix>-<type>-<yyyy.MM.dd>, as a 6.x index can only hold one mapping type.
func (p Profile) IndexName(prefix string, docType DocumentType, timestamp time.Time) string {
	date := timestamp.UTC().Format(IndexDateLayout)
	if p.SingleType() {
		return fmt.Sprintf("%s-%s-%s", prefix, docType, date)
	}
	return fmt.Sprintf("%s-%s", prefix, date)
}

// DocType returns the mapping type that is written to the _type field of the action header.
func (p Profile) DocType(docType DocumentType) string {
	if p.SingleType() {
		return singleTypeName
	}
	return string(docType)
}

// Templates returns the index templates that are required before indexing with this profile.
func (p Profile) Templates(prefix string) []Template {
	if !p.SingleType() {
		return []Template{{
			Name:    prefix,
			Pattern: prefix + "-*",
			Types:   DocumentTypes,
		}}
	}
	templates := make([]Template, 0, len(DocumentTypes))
	for _, t := range DocumentTypes {
		templates = append(templates, Template{
			Name:    fmt.Sprintf("%s-%s", prefix, t),
			Pattern: fmt.Sprintf("%s-%s-*", prefix, t),
			Types:   []DocumentType{t},
		})
	}
	return templates
}

func (p Profile) String() string {
	return fmt.Sprintf("%s (major %d)", p.Kind, p.Major)
}
