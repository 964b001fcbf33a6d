/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package catalog is the static fallback used when the model cannot be
// asked (or cannot be understood) for the list of resource types a task
// needs.
package catalog

import (
	"slices"
	"strings"

	"github.com/mikeb26/policygen/internal/types"
)

// Base is present in every lookup result.
var Base = []string{
	"Microsoft.Resources",
	"Microsoft.Resources/deployments",
}

// Entry maps any of its keywords (matched case-insensitively as substrings)
// to a batch of identifiers.
type Entry struct {
	Keywords    []string
	Identifiers []string
}

var Entries = []Entry{
	{
		Keywords: []string{"event hub", "eventhub"},
		Identifiers: []string{
			"Microsoft.EventHub",
			"Microsoft.EventHub/namespaces",
			"Microsoft.EventHub/namespaces/authorizationRules/listkeys",
			"Microsoft.EventHub/namespaces/authorizationRules",
			"Microsoft.EventHub/namespaces/eventhubs",
			"Microsoft.EventHub/namespaces/write",
			"Microsoft.EventHub/register",
			"Microsoft.EventHub/namespaces/networkrulesets/write",
			"Microsoft.EventHub/namespaces/disasterRecoveryConfig",
			"Microsoft.EventHub/namespaces/disasterRecoveryConfigs/authorizationRules",
			"Microsoft.EventHub/unregister",
			"Microsoft.EventHub/sku/regions",
			"Microsoft.EventHub/operations",
			"Microsoft.EventHub/namespaces/eventhubs/authorizationRules",
			"Microsoft.EventHub/namespaces/eventhubs/authorizationRules/listkeys",
			"Microsoft.EventHub/namespaces/eventHubs/consumergroups",
			"Microsoft.EventHub/namespaces/SchemaGroups",
		},
	},
	{
		Keywords: []string{"storage"},
		Identifiers: []string{
			"Microsoft.Storage/storageAccounts",
			"Microsoft.Storage/storageAccounts/blobservices",
			"Microsoft.Storage/storageAccounts/blobServices/containers",
			"Microsoft.Storage/storageAccounts/blobServices/containers/blobs",
			"Microsoft.Storage/storageAccounts/fileservices",
		},
	},
	{
		Keywords: []string{"api management", "apim"},
		Identifiers: []string{
			"Microsoft.ApiManagement/service",
			"Microsoft.ApiManagement/service/apis",
			"Microsoft.ApiManagement/register",
			"Microsoft.ApiManagement/unregister",
		},
	},
	{
		Keywords: []string{"container"},
		Identifiers: []string{
			"Microsoft.ContainerInstance/containerGroups",
		},
	},
	{
		Keywords: []string{"app service", "web app"},
		Identifiers: []string{
			"Microsoft.AppService/apiApps/*",
			"Microsoft.Web/sites",
			"Microsoft.Web/serverFarms",
		},
	},
}

// Lookup returns the base set plus the batches of every entry whose keyword
// appears in spec. The result is deduplicated and sorted so that repeated
// lookups compare equal regardless of keyword order in the text.
func Lookup(spec types.Specification) []string {
	text := strings.ToLower(string(spec))

	out := slices.Clone(Base)
	for _, e := range Entries {
		if matches(text, e.Keywords) {
			out = append(out, e.Identifiers...)
		}
	}

	slices.Sort(out)
	return slices.Compact(out)
}

func matches(lowerText string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lowerText, k) {
			return true
		}
	}
	return false
}
