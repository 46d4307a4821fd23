// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package bootstrap_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/gardener/elasticsearch-reporter/pkg/apis/config"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/bootstrap"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/profile"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch"
	mock_elasticsearch "github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch/mocks"
)

func response(method, path string, status int, body string) *elasticsearch.Response {
	return &elasticsearch.Response{Method: method, Path: path, StatusCode: status, Body: []byte(body)}
}

func rootResponse(version string) *elasticsearch.Response {
	return response(http.MethodGet, "/", http.StatusOK, fmt.Sprintf(`{"name":"node","cluster_name":"es","version":{"number":%q}}`, version))
}

func ok(path string) *elasticsearch.Response {
	return response(http.MethodPut, path, http.StatusOK, `{"acknowledged":true}`)
}

var _ = Describe("bootstrapper", func() {
	var (
		ctx    context.Context
		ctrl   *gomock.Controller
		client *mock_elasticsearch.MockClient
		cfg    *config.Configuration
		logs   []string
		log    logr.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		ctrl = gomock.NewController(GinkgoT())
		client = mock_elasticsearch.NewMockClient(ctrl)
		cfg = &config.Configuration{}
		config.SetDefaults_Configuration(cfg)

		logs = []string{}
		log = funcr.New(func(prefix, args string) {
			logs = append(logs, args)
		}, funcr.Options{Verbosity: 10})
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	It("should resolve 5.6.1 to major 5 and create the ingest pipeline", func() {
		cfg.Pipeline.Plugins = []string{"geoip"}
		client.EXPECT().Get(gomock.Any(), "/").Return(rootResponse("5.6.1"), nil)
		client.EXPECT().Put(gomock.Any(), "/_template/gravitee", gomock.Any()).Return(ok("/_template/gravitee"), nil)
		client.EXPECT().Put(gomock.Any(), "/_ingest/pipeline/gravitee_pipeline", gomock.Any()).Return(ok("/_ingest/pipeline/gravitee_pipeline"), nil)

		b := bootstrap.New(log, client, cfg)
		Expect(b.State()).To(Equal(bootstrap.Uninitialized))
		Expect(b.Run(ctx)).To(Succeed())

		Expect(b.State()).To(Equal(bootstrap.Ready))
		Expect(b.Version().Major()).To(Equal(uint64(5)))
		Expect(b.Profile().Kind).To(Equal(profile.V5))
		Expect(b.Pipeline()).To(Equal("gravitee_pipeline"))
		Expect(b.Ready()).To(BeClosed())
	})

	It("should resolve 2.4.0 to major 2 and skip the ingest pipeline with an error log", func() {
		cfg.Pipeline.Plugins = []string{"geoip"}
		client.EXPECT().Get(gomock.Any(), "/").Return(rootResponse("2.4.0"), nil)
		client.EXPECT().Put(gomock.Any(), "/_template/gravitee", gomock.Any()).Return(ok("/_template/gravitee"), nil)

		b := bootstrap.New(log, client, cfg)
		Expect(b.Run(ctx)).To(Succeed())

		Expect(b.State()).To(Equal(bootstrap.Ready))
		Expect(b.Version().Major()).To(Equal(uint64(2)))
		Expect(b.Profile().SupportsIngest()).To(BeFalse())
		Expect(b.Pipeline()).To(BeEmpty())
		Expect(logs).To(ContainElement(ContainSubstring("ingest pipelines are not supported")))
	})

	It("should only render the supported plugins into the pipeline", func() {
		cfg.Pipeline.Plugins = []string{"geoip", "unsupported"}
		client.EXPECT().Get(gomock.Any(), "/").Return(rootResponse("5.6.1"), nil)
		client.EXPECT().Put(gomock.Any(), "/_template/gravitee", gomock.Any()).Return(ok("/_template/gravitee"), nil)

		var pipelineBody string
		client.EXPECT().Put(gomock.Any(), "/_ingest/pipeline/gravitee_pipeline", gomock.Any()).DoAndReturn(
			func(_ context.Context, path string, body []byte) (*elasticsearch.Response, error) {
				pipelineBody = string(body)
				return ok(path), nil
			})

		b := bootstrap.New(log, client, cfg)
		Expect(b.Run(ctx)).To(Succeed())

		Expect(pipelineBody).To(ContainSubstring("geoip"))
		Expect(pipelineBody).ToNot(ContainSubstring("unsupported"))
		Expect(logs).To(ContainElement(ContainSubstring("is not supported and will be skipped")))
	})

	It("should disable the pipeline if no supported plugin remains", func() {
		cfg.Pipeline.Plugins = []string{"unsupported"}
		client.EXPECT().Get(gomock.Any(), "/").Return(rootResponse("6.8.23"), nil)
		client.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(ok("/_template/x"), nil).Times(4)

		b := bootstrap.New(log, client, cfg)
		Expect(b.Run(ctx)).To(Succeed())
		Expect(b.Pipeline()).To(BeEmpty())
	})

	It("should put one template per document type for 6.x", func() {
		client.EXPECT().Get(gomock.Any(), "/").Return(rootResponse("6.8.23"), nil)
		for _, t := range []string{"request", "log", "health", "monitor"} {
			client.EXPECT().Put(gomock.Any(), "/_template/gravitee-"+t, gomock.Any()).Return(ok("/_template/gravitee-"+t), nil)
		}

		b := bootstrap.New(log, client, cfg)
		Expect(b.Run(ctx)).To(Succeed())
		Expect(b.Profile().Kind).To(Equal(profile.V6))
	})

	It("should fail if the version probe fails", func() {
		client.EXPECT().Get(gomock.Any(), "/").Return(response(http.MethodGet, "/", http.StatusInternalServerError, "boom"), nil)

		b := bootstrap.New(log, client, cfg)
		err := b.Run(ctx)
		Expect(err).To(HaveOccurred())

		var techErr *elasticsearch.TechnicalError
		Expect(errors.As(err, &techErr)).To(BeTrue())
		Expect(techErr.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(b.State()).To(Equal(bootstrap.Uninitialized))
		Expect(b.Ready()).ToNot(BeClosed())
	})

	It("should fail if the cluster is not reachable", func() {
		client.EXPECT().Get(gomock.Any(), "/").Return(nil, &elasticsearch.TransportError{Method: http.MethodGet, Path: "/", Err: errors.New("connection refused")})

		b := bootstrap.New(log, client, cfg)
		Expect(b.Run(ctx)).To(HaveOccurred())
		Expect(b.State()).To(Equal(bootstrap.Uninitialized))
	})

	DescribeTable("should fail with a technical error on unparsable versions",
		func(number string) {
			client.EXPECT().Get(gomock.Any(), "/").Return(rootResponse(number), nil)

			b := bootstrap.New(log, client, cfg)
			err := b.Run(ctx)
			Expect(err).To(HaveOccurred())
			Expect(b.State()).To(Equal(bootstrap.Uninitialized))

			var techErr *elasticsearch.TechnicalError
			Expect(errors.As(err, &techErr)).To(BeTrue())
			Expect(techErr.Method).To(Equal(http.MethodGet))
			Expect(techErr.Path).To(Equal("/"))
			Expect(techErr.StatusCode).To(Equal(http.StatusOK))
			Expect(techErr.Body).To(ContainSubstring(number))
			Expect(techErr.Reason).To(ContainSubstring("unable to parse elasticsearch version"))
		},
		Entry("word", "abc"),
		Entry("missing patch version", "5.6"),
		Entry("empty", ""),
	)

	It("should warn about versions lower than 2.x and fail as they are unsupported", func() {
		client.EXPECT().Get(gomock.Any(), "/").Return(rootResponse("1.7.5"), nil)

		b := bootstrap.New(log, client, cfg)
		Expect(b.Run(ctx)).To(MatchError(ContainSubstring("not supported")))
		Expect(b.State()).To(Equal(bootstrap.VersionResolved))
		Expect(logs).To(ContainElement(ContainSubstring("lower than 2.x")))
	})

	It("should fail if the template cannot be created and retry without probing again", func() {
		client.EXPECT().Get(gomock.Any(), "/").Return(rootResponse("5.6.1"), nil).Times(1)
		client.EXPECT().Put(gomock.Any(), "/_template/gravitee", gomock.Any()).Return(response(http.MethodPut, "/_template/gravitee", http.StatusBadRequest, "bad mapping"), nil)

		b := bootstrap.New(log, client, cfg)
		Expect(b.Run(ctx)).To(MatchError(ContainSubstring("bad mapping")))
		Expect(b.State()).To(Equal(bootstrap.VersionResolved))

		client.EXPECT().Put(gomock.Any(), "/_template/gravitee", gomock.Any()).Return(ok("/_template/gravitee"), nil)
		Expect(b.Run(ctx)).To(Succeed())
		Expect(b.State()).To(Equal(bootstrap.Ready))
	})

	It("should stay ready if the pipeline cannot be created", func() {
		cfg.Pipeline.Plugins = []string{"geoip"}
		client.EXPECT().Get(gomock.Any(), "/").Return(rootResponse("5.6.1"), nil)
		client.EXPECT().Put(gomock.Any(), "/_template/gravitee", gomock.Any()).Return(ok("/_template/gravitee"), nil)
		client.EXPECT().Put(gomock.Any(), "/_ingest/pipeline/gravitee_pipeline", gomock.Any()).Return(response(http.MethodPut, "/_ingest/pipeline/gravitee_pipeline", http.StatusBadRequest, "no geoip"), nil)

		b := bootstrap.New(log, client, cfg)
		Expect(b.Run(ctx)).To(Succeed())
		Expect(b.State()).To(Equal(bootstrap.Ready))
		Expect(b.Pipeline()).To(BeEmpty())
	})

	It("should be a noop once ready", func() {
		client.EXPECT().Get(gomock.Any(), "/").Return(rootResponse("5.6.1"), nil).Times(1)
		client.EXPECT().Put(gomock.Any(), "/_template/gravitee", gomock.Any()).Return(ok("/_template/gravitee"), nil).Times(1)

		b := bootstrap.New(log, client, cfg)
		Expect(b.Run(ctx)).To(Succeed())
		Expect(b.Run(ctx)).To(Succeed())
	})

	Context("ParseVersion", func() {
		It("should parse release and pre-release versions", func() {
			v, err := bootstrap.ParseVersion("6.0.0-beta1")
			Expect(err).ToNot(HaveOccurred())
			Expect(v.Major()).To(Equal(uint64(6)))
		})

		It("should reject incomplete versions", func() {
			_, err := bootstrap.ParseVersion("5.6")
			Expect(err).To(HaveOccurred())
		})
	})
})
