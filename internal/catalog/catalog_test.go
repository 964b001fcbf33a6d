/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package catalog

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mikeb26/policygen/internal/types"
	"github.com/stretchr/testify/assert"
)

func hasPrefix(ids []string, prefix string) bool {
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

func TestLookup_BaseAlwaysPresent(t *testing.T) {
	for _, spec := range []types.Specification{"", "nothing relevant", "STORAGE"} {
		got := Lookup(spec)
		for _, b := range Base {
			assert.Contains(t, got, b, string(spec))
		}
	}
	assert.ElementsMatch(t, Base, Lookup("no keywords here"))
}

func TestLookup_EventHubAndStorage(t *testing.T) {
	got := Lookup("Create an Event Hub namespace and a Storage account")

	assert.Subset(t, got, []string{"Microsoft.Resources",
		"Microsoft.Resources/deployments"})
	assert.True(t, hasPrefix(got, "Microsoft.EventHub"))
	assert.True(t, hasPrefix(got, "Microsoft.Storage/storageAccounts"))
	assert.False(t, hasPrefix(got, "Microsoft.ApiManagement"))
}

func TestLookup_CaseInsensitiveAndAliases(t *testing.T) {
	assert.Equal(t, Lookup("EVENTHUB"), Lookup("event hub"))
	assert.Equal(t, Lookup("APIM"), Lookup("Api Management"))
	assert.True(t, hasPrefix(Lookup("a Web App"), "Microsoft.Web/sites"))
}

func TestLookup_OrderIndependentAndIdempotent(t *testing.T) {
	a := Lookup("Storage, Event Hub, Container Instances")
	b := Lookup("Container Instances, Event Hub, Storage")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("lookup depends on keyword order (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a, Lookup("Storage, Event Hub, Container Instances")); diff != "" {
		t.Fatalf("lookup is not idempotent:\n%s", diff)
	}
}

func TestLookup_NoDuplicates(t *testing.T) {
	// "storage container" matches two entries and repeats keywords
	got := Lookup("storage storage container event hub eventhub")
	seen := make(map[string]bool)
	for _, id := range got {
		assert.False(t, seen[id], "duplicate %v", id)
		seen[id] = true
	}
}
