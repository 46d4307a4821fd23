// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package viper

import (
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gardener/elasticsearch-reporter/pkg/util"
)

const (
	KeyAnnotation = "key"
)

// Helper binds command line flags to configuration keys.
// Values of config files and environment variables are written back into the flags
// so that the flag variables always hold the effective configuration.
type Helper struct {
	viper  *viper.Viper
	pflags map[string]*flag.Flag

	configPath string
}

// NewViperHelper creates a new helper.
// Environment variables are read with the given prefix, e.g. PREFIX_BULK_ACTIONS for the key bulk.actions.
func NewViperHelper(v *viper.Viper, envPrefix string) *Helper {
	if v == nil {
		v = viper.New()
	}
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}
	return &Helper{
		viper:  v,
		pflags: map[string]*flag.Flag{},
	}
}

// InitFlags adds the config file flag.
func (h *Helper) InitFlags(fs *flag.FlagSet) {
	if fs == nil {
		fs = flag.CommandLine
	}
	fs.StringVar(&h.configPath, "config", "", "Path to a yaml configuration file")
}

// BindPFlag binds a pflag to viper and stores a internal reference
func (h *Helper) BindPFlag(key string, f *flag.Flag) {
	AddCustomConfigForFlag(f, key)
	h.pflags[key] = f
	_ = h.viper.BindPFlag(key, f)
}

// BindPFlagFromFlagSet binds the flag with the given name to the configuration key.
func (h *Helper) BindPFlagFromFlagSet(fs *flag.FlagSet, name, key string) {
	if f := fs.Lookup(name); f != nil {
		h.BindPFlag(key, f)
	}
}

// BindPFlags binds all pflag of a flagset to viper and stores a internal reference
func (h *Helper) BindPFlags(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		h.BindPFlag(GetConfigKey(f), f)
	})
}

// ReadInConfig reads the configured config file and applies the configuration to all bound flags.
// Without config file only environment variables are applied.
func (h *Helper) ReadInConfig() error {
	if h.configPath != "" {
		file, err := os.Open(h.configPath)
		if err != nil {
			return errors.Wrapf(err, "unable to read file from %s", h.configPath)
		}
		defer file.Close()
		h.viper.SetConfigType("yaml")
		if err := h.viper.ReadConfig(file); err != nil {
			return errors.Wrapf(err, "unable to parse config file %s", h.configPath)
		}
	}
	return h.ApplyConfig()
}

// ApplyConfig writes viper flags back to the originated pflag variable pointer.
func (h *Helper) ApplyConfig() error {
	var allErrs *multierror.Error
	for key, f := range h.pflags {
		if f.Changed || !h.viper.IsSet(key) {
			continue
		}
		if slice, ok := f.Value.(flag.SliceValue); ok {
			if err := slice.Replace(h.viper.GetStringSlice(key)); err != nil {
				allErrs = multierror.Append(allErrs, errors.Wrapf(err, "invalid value for %s", key))
			}
			continue
		}
		if err := f.Value.Set(h.viper.GetString(key)); err != nil {
			allErrs = multierror.Append(allErrs, errors.Wrapf(err, "invalid value for %s", key))
		}
	}
	return util.ReturnMultiError(allErrs)
}

// Viper returns the underlying viper instance.
func (h *Helper) Viper() *viper.Viper {
	return h.viper
}
