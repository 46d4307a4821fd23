// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package profile_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gardener/elasticsearch-reporter/pkg/reporter/profile"
)

var _ = Describe("profile", func() {

	DescribeTable("ForMajor",
		func(major int, kind profile.Kind, ingest bool) {
			p := profile.ForMajor(major)
			Expect(p.Kind).To(Equal(kind))
			Expect(p.Major).To(Equal(major))
			Expect(p.SupportsIngest()).To(Equal(ingest))
		},
		Entry("1.x is unsupported", 1, profile.Unsupported, false),
		Entry("2.x", 2, profile.V2, false),
		Entry("5.x", 5, profile.V5, true),
		Entry("6.x", 6, profile.V6, true),
		Entry("7.x is unsupported", 7, profile.Unsupported, true),
	)

	Context("index names", func() {
		ts := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)

		It("should use the document date of daily indices", func() {
			Expect(profile.ForMajor(5).IndexName("gravitee", profile.TypeRequest, ts)).To(Equal("gravitee-2024.03.07"))
			Expect(profile.ForMajor(2).IndexName("gravitee", profile.TypeHealth, ts)).To(Equal("gravitee-2024.03.07"))
		})

		It("should derive the date in UTC", func() {
			cet := time.FixedZone("CET", 2*60*60)
			local := time.Date(2024, 3, 8, 1, 0, 0, 0, cet)
			Expect(profile.ForMajor(5).IndexName("gravitee", profile.TypeRequest, local)).To(Equal("gravitee-2024.03.07"))
		})

		It("should use single type indices for 6.x", func() {
			p := profile.ForMajor(6)
			Expect(p.IndexName("gravitee", profile.TypeMonitor, ts)).To(Equal("gravitee-monitor-2024.03.07"))
			Expect(p.IndexName("gravitee", profile.TypeRequest, ts)).To(Equal("gravitee-request-2024.03.07"))
			Expect(p.IndexName("gravitee", profile.TypeLog, ts)).To(Equal("gravitee-log-2024.03.07"))
			Expect(p.DocType(profile.TypeMonitor)).To(Equal("doc"))
		})

		It("should use the document type as mapping type before 6.x", func() {
			Expect(profile.ForMajor(5).DocType(profile.TypeLog)).To(Equal("log"))
		})
	})

	Context("templates", func() {
		It("should create one template for all types before 6.x", func() {
			templates := profile.ForMajor(5).Templates("gravitee")
			Expect(templates).To(HaveLen(1))
			Expect(templates[0].Name).To(Equal("gravitee"))
			Expect(templates[0].Pattern).To(Equal("gravitee-*"))
			Expect(templates[0].Types).To(Equal(profile.DocumentTypes))
		})

		It("should create one template per type for 6.x", func() {
			templates := profile.ForMajor(6).Templates("gravitee")
			Expect(templates).To(HaveLen(4))
			Expect(templates[0].Name).To(Equal("gravitee-request"))
			Expect(templates[0].Pattern).To(Equal("gravitee-request-*"))
			Expect(templates[0].Types).To(ConsistOf(profile.TypeRequest))
		})
	})
})
