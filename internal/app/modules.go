package app

import (
	"github.com/shuvo-dotcom/nfgcalc/internal/config"
	"github.com/shuvo-dotcom/nfgcalc/internal/formula"
	"github.com/shuvo-dotcom/nfgcalc/internal/hcl_adapter"
	"github.com/shuvo-dotcom/nfgcalc/internal/yaml_adapter"
	"github.com/shuvo-dotcom/nfgcalc/modules/finance"
	"github.com/shuvo-dotcom/nfgcalc/modules/mathfn"
)

// coreModules is the definitive list of formula function modules compiled
// into the nfgcalc binary.
var coreModules = []formula.Module{
	&mathfn.Module{},
	&finance.Module{},
}

// registryLoaders reads every supported registry source format.
func registryLoaders() []config.Loader {
	return []config.Loader{
		hcl_adapter.NewLoader(),
		yaml_adapter.NewLoader(),
	}
}
