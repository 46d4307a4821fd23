// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap prepares an elasticsearch cluster before the first documents are flushed.
package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/gardener/elasticsearch-reporter/pkg/apis/config"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/profile"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/templates"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch"
)

// State is the bootstrap state of the cluster.
type State string

const (
	Uninitialized   State = "UNINITIALIZED"
	VersionResolved State = "VERSION_RESOLVED"
	Ready           State = "READY"
)

// Bootstrapper resolves the cluster version once, registers the index templates
// and the optional ingest pipeline.
type Bootstrapper struct {
	log    logr.Logger
	client elasticsearch.Client

	indexPrefix string
	settings    config.IndexSettings
	pipelineCfg config.Pipeline

	mut      sync.RWMutex
	state    State
	version  *semver.Version
	profile  profile.Profile
	pipeline string

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a new bootstrapper for the given configuration.
func New(log logr.Logger, client elasticsearch.Client, cfg *config.Configuration) *Bootstrapper {
	return &Bootstrapper{
		log:         log,
		client:      client,
		indexPrefix: cfg.ElasticSearch.Index,
		settings:    cfg.Settings,
		pipelineCfg: cfg.Pipeline,
		state:       Uninitialized,
		ready:       make(chan struct{}),
	}
}

// Run drives the bootstrapper to READY.
// Version probe and template failures are returned and leave the bootstrapper in its current state.
// Running a READY bootstrapper again is a noop.
func (b *Bootstrapper) Run(ctx context.Context) error {
	if b.State() == Ready {
		return nil
	}

	if b.State() == Uninitialized {
		if err := b.resolveVersion(ctx); err != nil {
			return err
		}
	}

	p := b.Profile()
	if !p.Supported() {
		return errors.Errorf("elasticsearch version %s is not supported", b.Version())
	}
	if err := b.ensureTemplates(ctx, p); err != nil {
		return err
	}
	pipeline := b.ensurePipeline(ctx, p)

	b.mut.Lock()
	b.pipeline = pipeline
	b.state = Ready
	b.mut.Unlock()
	b.readyOnce.Do(func() { close(b.ready) })

	b.log.Info("elasticsearch cluster is ready", "version", b.Version().String(), "profile", string(p.Kind), "pipeline", pipeline)
	return nil
}

func (b *Bootstrapper) resolveVersion(ctx context.Context) error {
	info, err := elasticsearch.GetClusterInfo(ctx, b.client)
	if err != nil {
		return errors.Wrap(err, "unable to get elasticsearch version")
	}
	version, err := ParseVersion(info.Version.Number)
	if err != nil {
		return elasticsearch.NewTechnicalError(info.Response, err.Error())
	}
	if version.Major() < 2 {
		b.log.Info("WARNING: the elasticsearch version is lower than 2.x and may not be compatible", "version", version.String())
	}

	b.mut.Lock()
	b.version = version
	b.profile = profile.ForMajor(int(version.Major()))
	b.state = VersionResolved
	b.mut.Unlock()

	b.log.V(3).Info("resolved elasticsearch version", "version", version.String(), "cluster", info.ClusterName)
	return nil
}

func (b *Bootstrapper) ensureTemplates(ctx context.Context, p profile.Profile) error {
	for _, t := range p.Templates(b.indexPrefix) {
		body, err := templates.RenderIndexTemplate(p, t, b.settings)
		if err != nil {
			return err
		}
		if _, err := elasticsearch.CheckOK(b.client.Put(ctx, "/_template/"+t.Name, body)); err != nil {
			return errors.Wrapf(err, "unable to put index template %s", t.Name)
		}
		b.log.V(3).Info("index template created or updated", "template", t.Name, "pattern", t.Pattern)
	}
	return nil
}

// ensurePipeline registers the ingest pipeline and returns its name.
// An empty name is returned if no pipeline is used.
func (b *Bootstrapper) ensurePipeline(ctx context.Context, p profile.Profile) string {
	if len(b.pipelineCfg.Plugins) == 0 {
		return ""
	}
	if !p.SupportsIngest() {
		b.log.Error(nil, "ingest pipelines are not supported before elasticsearch 5.x, ingest plugins are ignored",
			"version", b.Version().String(), "plugins", b.pipelineCfg.Plugins)
		return ""
	}

	plugins := FilterPlugins(b.log, b.pipelineCfg.Plugins)
	if len(plugins) == 0 {
		b.log.Info("no supported ingest plugin configured, the ingest pipeline is disabled")
		return ""
	}

	body, err := templates.RenderPipeline(plugins)
	if err != nil {
		b.log.Error(err, "unable to render ingest pipeline, the ingest pipeline is disabled")
		return ""
	}
	if _, err := elasticsearch.CheckOK(b.client.Put(ctx, "/_ingest/pipeline/"+b.pipelineCfg.Name, body)); err != nil {
		b.log.Error(err, "unable to put ingest pipeline, the ingest pipeline is disabled", "pipeline", b.pipelineCfg.Name)
		return ""
	}
	b.log.V(3).Info("ingest pipeline created or updated", "pipeline", b.pipelineCfg.Name, "plugins", plugins)
	return b.pipelineCfg.Name
}

// FilterPlugins returns the intersection of the configured and the supported plugins.
// Every unsupported plugin is logged.
func FilterPlugins(log logr.Logger, configured []string) []string {
	plugins := make([]string, 0, len(configured))
	for _, plugin := range configured {
		if !templates.IsSupportedPlugin(plugin) {
			log.Info(fmt.Sprintf("ingest plugin %q is not supported and will be skipped", plugin), "supported", templates.SupportedPlugins)
			continue
		}
		plugins = append(plugins, plugin)
	}
	return plugins
}

// ParseVersion parses an elasticsearch version number of the form major.minor.patch.
func ParseVersion(number string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(number)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse elasticsearch version %q", number)
	}
	return v, nil
}

// State returns the current bootstrap state.
func (b *Bootstrapper) State() State {
	b.mut.RLock()
	defer b.mut.RUnlock()
	return b.state
}

// Version returns the resolved version or nil.
func (b *Bootstrapper) Version() *semver.Version {
	b.mut.RLock()
	defer b.mut.RUnlock()
	return b.version
}

// Profile returns the client profile of the resolved version.
func (b *Bootstrapper) Profile() profile.Profile {
	b.mut.RLock()
	defer b.mut.RUnlock()
	return b.profile
}

// Pipeline returns the name of the registered ingest pipeline.
// It is empty if no pipeline is enabled.
func (b *Bootstrapper) Pipeline() string {
	b.mut.RLock()
	defer b.mut.RUnlock()
	return b.pipeline
}

// Ready returns a channel that is closed once the bootstrapper is READY.
func (b *Bootstrapper) Ready() <-chan struct{} {
	return b.ready
}
