package upfront

import (
	"github.com/cs-au-dk/gaia/utils"
)

var (
	opts         = utils.Opts()
	verbosePrint = utils.VerbosePrint
)
