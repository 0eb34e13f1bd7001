package platform

import "github.com/barysiuk/linkrow/internal/core/asset"

// IOSPlatform links dependencies into an Xcode project.
type IOSPlatform struct {
	basePlatform
}

// NewIOS creates a configured iOS adapter.
func NewIOS() *IOSPlatform {
	return &IOSPlatform{basePlatform{
		id:            IOS,
		displayName:   "iOS",
		sourceDir:     "ios",
		detectSignals: []string{"Podfile", "*.xcodeproj", "*.xcworkspace"},
		modulesFile:   "linkrow.modules.jsonc",
		modulesFormat: "jsonc",
		assetsDir:     "Resources",
		layout: asset.Layout{
			asset.KindFont:  "Fonts",
			asset.KindImage: "Images",
			asset.KindSound: "Sounds",
			asset.KindOther: "Other",
		},
	}}
}
