// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/gardener/elasticsearch-reporter/pkg/apis/config"
)

// ValidateConfiguration validates the passed configuration instance
func ValidateConfiguration(config *config.Configuration) field.ErrorList {
	allErrs := field.ErrorList{}

	allErrs = append(allErrs, validateElasticSearch(config.ElasticSearch, field.NewPath("elasticsearch"))...)
	allErrs = append(allErrs, validateBulk(config.Bulk, field.NewPath("bulk"))...)
	allErrs = append(allErrs, validateSettings(config.Settings, field.NewPath("settings"))...)

	return allErrs
}

func validateElasticSearch(es config.ElasticSearch, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}

	if len(es.Endpoints) == 0 {
		allErrs = append(allErrs, field.Required(fldPath.Child("endpoints"), "at least one endpoint has to be defined"))
	}
	for i, raw := range es.Endpoints {
		if _, err := config.ParseEndpoint(raw); err != nil {
			allErrs = append(allErrs, field.Invalid(fldPath.Child("endpoints").Index(i), raw, err.Error()))
		}
	}
	if len(es.Index) == 0 {
		allErrs = append(allErrs, field.Required(fldPath.Child("index"), "an index prefix has to be defined"))
	}
	if len(es.Username) == 0 && len(es.Password) != 0 {
		allErrs = append(allErrs, field.Required(fldPath.Child("username"), "a username is required if a password is set"))
	}
	switch es.Client {
	case config.ClientTypeHTTP, config.ClientTypeTransport:
	default:
		allErrs = append(allErrs, field.NotSupported(fldPath.Child("client"), es.Client, []string{string(config.ClientTypeHTTP), string(config.ClientTypeTransport)}))
	}
	if es.RequestTimeout.Duration < 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("requestTimeout"), es.RequestTimeout.String(), "must not be negative"))
	}

	return allErrs
}

func validateBulk(bulk config.Bulk, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}

	if bulk.Actions <= 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("actions"), bulk.Actions, "must be greater than 0"))
	}
	if bulk.FlushInterval <= 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("flushInterval"), bulk.FlushInterval, "must be greater than 0"))
	}
	if bulk.ConcurrentRequests < 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("concurrentRequests"), bulk.ConcurrentRequests, "must not be negative"))
	}
	if bulk.MaxBufferedActions < 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("maxBufferedActions"), bulk.MaxBufferedActions, "must not be negative"))
	}
	if bulk.MaxBufferedActions > 0 && bulk.MaxBufferedActions < bulk.Actions {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("maxBufferedActions"), bulk.MaxBufferedActions, "must not be lower than the bulk actions"))
	}

	return allErrs
}

func validateSettings(settings config.IndexSettings, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}

	if settings.NumberOfShards <= 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("numberOfShards"), settings.NumberOfShards, "must be greater than 0"))
	}
	if settings.NumberOfReplicas < 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("numberOfReplicas"), settings.NumberOfReplicas, "must not be negative"))
	}

	return allErrs
}
