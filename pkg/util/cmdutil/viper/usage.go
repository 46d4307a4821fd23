// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package viper

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"
)

// Usage returns all bound configuration keys as a yaml document
// whose leaves are the usage strings of the bound flags.
func (h *Helper) Usage() (string, error) {
	tree := map[string]interface{}{}
	for key, f := range h.pflags {
		if err := setPath(tree, strings.Split(key, "."), f.Usage); err != nil {
			return "", err
		}
	}

	data, err := yaml.Marshal(tree)
	if err != nil {
		return "", errors.Wrap(err, "unable to marshal configuration keys")
	}
	return string(data), nil
}

// GetConfigKey returns the configuration key a flag is bound to.
// Unbound flags are identified by their name.
func GetConfigKey(flag *pflag.Flag) string {
	if key, ok := flag.Annotations[KeyAnnotation]; ok && len(key) != 0 {
		return key[0]
	}
	return flag.Name
}

// AddCustomConfigForFlag sets a custom configuration key for the given flag
func AddCustomConfigForFlag(f *pflag.Flag, key string) {
	if f.Annotations == nil {
		f.Annotations = map[string][]string{}
	}
	f.Annotations[KeyAnnotation] = []string{key}
}

func setPath(tree map[string]interface{}, path []string, value string) error {
	if len(path) == 1 {
		if _, ok := tree[path[0]].(map[string]interface{}); ok {
			return errors.Errorf("key %s is already used as a parent key", path[0])
		}
		tree[path[0]] = value
		return nil
	}

	sub, ok := tree[path[0]]
	if !ok {
		sub = map[string]interface{}{}
		tree[path[0]] = sub
	}
	subTree, ok := sub.(map[string]interface{})
	if !ok {
		return errors.Errorf("unable to add %s below the value of key %s", strings.Join(path[1:], "."), path[0])
	}
	return setPath(subTree, path[1:], value)
}
