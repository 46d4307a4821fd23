// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package templates renders the index templates and ingest pipelines that are registered on startup.
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"

	"github.com/gardener/elasticsearch-reporter/pkg/apis/config"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/profile"
	"github.com/gardener/elasticsearch-reporter/pkg/util"
)

// PluginGeoIP enriches request documents with the location of the remote address.
const PluginGeoIP = "geoip"

// SupportedPlugins are the ingest plugins a pipeline can be rendered for.
var SupportedPlugins = []string{PluginGeoIP}

//go:embed files/*.tmpl
var files embed.FS

var templates = template.Must(template.New("templates").Funcs(sprig.TxtFuncMap()).ParseFS(files, "files/*.tmpl"))

const (
	multiTypeTemplate  = "multi-type.json.tmpl"
	singleTypeTemplate = "single-type.json.tmpl"
	pipelineTemplate   = "pipeline.json.tmpl"
)

type indexTemplateValues struct {
	Dialect  string
	Pattern  string
	Types    []profile.DocumentType
	Settings config.IndexSettings
}

type pipelineValues struct {
	Description string
	Plugins     []string
}

// IsSupportedPlugin returns whether a pipeline processor exists for the plugin.
func IsSupportedPlugin(plugin string) bool {
	return util.StringArrayContains(SupportedPlugins, plugin)
}

// RenderIndexTemplate renders the body of an index template in the dialect of the profile.
func RenderIndexTemplate(p profile.Profile, t profile.Template, settings config.IndexSettings) ([]byte, error) {
	if len(t.Types) == 0 {
		return nil, errors.Errorf("index template %s maps no document types", t.Name)
	}
	values := indexTemplateValues{
		Pattern:  t.Pattern,
		Types:    t.Types,
		Settings: settings,
	}
	name := multiTypeTemplate
	switch p.Kind {
	case profile.V2:
		values.Dialect = "es2x"
	case profile.V5:
		values.Dialect = "es5x"
	case profile.V6:
		values.Dialect = "es6x"
		name = singleTypeTemplate
	default:
		return nil, errors.Errorf("no index template available for %s", p)
	}
	return render(name, values)
}

// RenderPipeline renders an ingest pipeline with one processor per plugin.
// All plugins have to be supported.
func RenderPipeline(plugins []string) ([]byte, error) {
	if len(plugins) == 0 {
		return nil, errors.New("a pipeline needs at least one plugin")
	}
	for _, plugin := range plugins {
		if !IsSupportedPlugin(plugin) {
			return nil, errors.Errorf("unsupported ingest plugin %q", plugin)
		}
	}
	return render(pipelineTemplate, pipelineValues{
		Description: "Gateway reporter pipeline",
		Plugins:     plugins,
	})
}

func render(name string, values interface{}) ([]byte, error) {
	var result bytes.Buffer
	if err := templates.ExecuteTemplate(&result, name, values); err != nil {
		return nil, errors.Wrapf(err, "unable to render %s", name)
	}

	var compacted bytes.Buffer
	if err := json.Compact(&compacted, result.Bytes()); err != nil {
		return nil, errors.Wrapf(err, "%s rendered invalid json", name)
	}
	return compacted.Bytes(), nil
}
