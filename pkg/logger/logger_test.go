// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package logger_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	flag "github.com/spf13/pflag"

	"github.com/gardener/elasticsearch-reporter/pkg/logger"
)

var _ = Describe("logger", func() {

	It("should map the verbosity to the logr verbosity", func() {
		log, err := logger.New(&logger.Config{Verbosity: 3})
		Expect(err).ToNot(HaveOccurred())
		Expect(log.V(3).Enabled()).To(BeTrue())
		Expect(log.V(4).Enabled()).To(BeFalse())
	})

	It("should create a development logger", func() {
		log, err := logger.New(&logger.Config{Development: true, Verbosity: 10})
		Expect(err).ToNot(HaveOccurred())
		Expect(log.V(10).Enabled()).To(BeTrue())
	})

	It("should register the logging flags", func() {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		logger.InitFlags(fs)
		Expect(fs.Parse([]string{"-v", "5", "--dev"})).To(Succeed())

		log, err := logger.NewCliLogger()
		Expect(err).ToNot(HaveOccurred())
		Expect(log.V(5).Enabled()).To(BeTrue())
	})
})
