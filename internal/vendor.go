/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package internal

import (
	"slices"
)

const DefaultVendor = "azure"

type VendorInfo struct {
	Name     string
	FullName string
	// KeyEnv names the environment variable holding the credential
	KeyEnv          string
	ApiKeyUrl       string
	SupportedModels []string
	DefaultModel    string
}

var vendorInfos = map[string]VendorInfo{
	"azure": {
		Name:            "azure",
		FullName:        "Azure OpenAI",
		KeyEnv:          "AZURE_OPENAI_API_KEY",
		ApiKeyUrl:       "https://portal.azure.com/#view/Microsoft_Azure_ProjectOxford/CognitiveServicesHub/~/OpenAI",
		SupportedModels: []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1"},
		DefaultModel:    "gpt-4o-mini",
	},
	"google": {
		Name:            "google",
		FullName:        "Google",
		KeyEnv:          "GEMINI_API_KEY",
		ApiKeyUrl:       "https://aistudio.google.com/app/api-keys",
		SupportedModels: []string{"gemini-3-pro-preview", "gemini-3-flash-preview"},
		DefaultModel:    "gemini-3-pro-preview",
	},
	"anthropic": {
		Name:      "anthropic",
		FullName:  "Anthropic",
		KeyEnv:    "ANTHROPIC_API_KEY",
		ApiKeyUrl: "https://platform.claude.com/settings/keys",
		SupportedModels: []string{"claude-sonnet-4-5-20250929",
			"claude-opus-4-5-20251101", "claude-haiku-4-5-20251001"},
		DefaultModel: "claude-sonnet-4-5-20250929",
	},
	"openai": {
		Name:            "openai",
		FullName:        "OpenAI",
		KeyEnv:          "OPENAI_API_KEY",
		ApiKeyUrl:       "https://platform.openai.com/api-keys",
		SupportedModels: []string{"gpt-5.2", "gpt-5-mini", "gpt-5.2-pro"},
		DefaultModel:    "gpt-5.2",
	},
}

// GetVendors returns the supported vendor names in sorted order.
func GetVendors() []string {
	ret := make([]string, 0, len(vendorInfos))

	for k := range vendorInfos {
		ret = append(ret, k)
	}
	slices.Sort(ret)

	return ret
}

func GetVendorInfo(name string) (VendorInfo, bool) {
	v, ok := vendorInfos[name]
	return v, ok
}
