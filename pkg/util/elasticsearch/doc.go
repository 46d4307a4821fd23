// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:generate mockgen -destination=./mocks/client.go github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch Client

// Package elasticsearch contains the wire client that talks json over http to an elasticsearch cluster.
package elasticsearch
