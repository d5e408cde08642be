// Package embedded provides access to embedded catalog data files.
package embedded

import _ "embed"

// PlatformsData contains the embedded search platform catalog YAML data.
//
//go:embed catalog/platforms.yaml
var PlatformsData []byte

// SitesData contains the embedded site group catalog YAML data.
//
//go:embed catalog/sites.yaml
var SitesData []byte

// AppsData contains the embedded application map YAML data.
//
//go:embed catalog/apps.yaml
var AppsData []byte

// VoicesData contains the embedded voice profile YAML data.
//
//go:embed catalog/voices.yaml
var VoicesData []byte
