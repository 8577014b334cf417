// Package all imports all supported package type processors.
//
// Import this package for its side effects to register the manifest rules
// for every package type:
//
//	import (
//		"github.com/git-pkgs/icm"
//		_ "github.com/git-pkgs/icm/all"
//	)
//
//	// Now all package types are available
//	types := icm.Supported()
//	// ["git-submodule", "go-package", "gomod", "npm", "pip", "yarn"]
package all

import (
	_ "github.com/git-pkgs/icm/internal/gitsubmodule"
	_ "github.com/git-pkgs/icm/internal/gomod"
	_ "github.com/git-pkgs/icm/internal/gopackage"
	_ "github.com/git-pkgs/icm/internal/npm"
	_ "github.com/git-pkgs/icm/internal/pip"
	_ "github.com/git-pkgs/icm/internal/yarn"
)
