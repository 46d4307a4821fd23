// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ReturnMultiError returns nil for empty multierrors and formats them in a single line otherwise.
func ReturnMultiError(err error) error {
	if err == nil || reflect.ValueOf(err).IsNil() {
		return nil
	}

	if errs, ok := err.(*multierror.Error); ok {
		errs.ErrorFormat = func(errs []error) string {
			if len(errs) == 1 {
				return fmt.Sprintf("1 error occurred: %s", errs[0].Error())
			}

			msgs := make([]string, len(errs))
			for i, err := range errs {
				msgs[i] = err.Error()
			}
			return fmt.Sprintf("%d errors occurred: %s", len(errs), strings.Join(msgs, "; "))
		}
		return errs.ErrorOrNil()
	}
	return err
}
